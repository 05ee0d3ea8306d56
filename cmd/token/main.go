package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/service"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	operatorID := flag.String("operator", "", "Operator id to issue the token for")
	role := flag.String("role", service.RoleOperator, "Operator role: admin, operator or viewer")
	flag.Parse()

	if *operatorID == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		os.Exit(2)
	}

	switch *role {
	case service.RoleAdmin, service.RoleOperator, service.RoleViewer:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tokenString, err := service.NewAuthService(cfg.Auth).GenerateToken(*operatorID, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
	fmt.Fprintln(os.Stderr, "\nUse this token in your requests:")
	fmt.Fprintf(os.Stderr, "curl -X POST http://localhost%s%s/orders \\\n", cfg.HTTP.Address, cfg.HTTP.APIPrefix)
	fmt.Fprintf(os.Stderr, "  -H \"Content-Type: application/json\" \\\n")
	fmt.Fprintf(os.Stderr, "  -H \"Authorization: Bearer %s\" \\\n", tokenString)
	fmt.Fprintf(os.Stderr, "  -d '{\"product_id\": 7, \"quantity\": 3, \"user_id\": \"201\"}'\n")
}
