package types

import "github.com/shopspring/decimal"

// Balance is the holding of one asset. Locked is reserved against open orders.
type Balance struct {
	Asset  string          `json:"asset" yaml:"asset"`
	Free   decimal.Decimal `json:"free" yaml:"free"`
	Locked decimal.Decimal `json:"locked" yaml:"locked"`
}

// Total returns free plus locked.
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// VenueStatus is the connectivity state of a venue session.
type VenueStatus string

const (
	VenueStatusConnected    VenueStatus = "connected"
	VenueStatusDegraded     VenueStatus = "degraded"
	VenueStatusDisconnected VenueStatus = "disconnected"
)

// SessionInfo is a read-only view of a venue session.
type SessionInfo struct {
	Venue           string      `json:"venue"`
	Status          VenueStatus `json:"status"`
	BudgetRemaining int         `json:"budget_remaining"`
	Failures        int         `json:"failures"`
}
