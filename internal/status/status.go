package status

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Harshitk-cp/opsconsole/libs/health"
)

// LowStockThreshold is the quantity under which a product is low on stock
const LowStockThreshold = 20

// StockStatus classifies an inventory quantity
type StockStatus string

const (
	// OutOfStock means the quantity is zero
	OutOfStock StockStatus = "Out of Stock"
	// LowStock means the quantity is positive but under LowStockThreshold
	LowStock StockStatus = "Low Stock"
	// InStock means the quantity is at least LowStockThreshold
	InStock StockStatus = "In Stock"
)

// Service statuses shown on monitor cards
const (
	Online  = "ONLINE"
	Offline = "OFFLINE"
)

// StockStatusOf classifies a quantity.
// Negative quantities never come from the inventory service and are treated as out of stock.
func StockStatusOf(quantity int64) StockStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity < LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// IsLow reports whether a quantity should be highlighted
func IsLow(quantity int64) bool {
	return quantity < LowStockThreshold
}

// ServiceStatus is ONLINE iff the snapshot is up
func ServiceStatus(s health.Snapshot) string {
	if s.Up {
		return Online
	}
	return Offline
}

// DependencyStatuses returns the per-dependency statuses reported in the raw
// health payload, or an empty map when there are none
func DependencyStatuses(s health.Snapshot) map[string]string {
	return health.Dependencies(s.Raw)
}

// DependencyLabel turns a dependency key such as "message_queue" into "Message Queue".
// A Caser keeps state between calls, so each call builds its own.
func DependencyLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
