package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Liquidity string

const (
	LiquidityMaker Liquidity = "MAKER"
	LiquidityTaker Liquidity = "TAKER"
)

// Fill is one execution against an order.
type Fill struct {
	TradeID       string          `json:"trade_id" yaml:"trade_id"`
	ClientOrderID string          `json:"client_order_id" yaml:"client_order_id"`
	Symbol        string          `json:"symbol" yaml:"symbol"`
	Side          Side            `json:"side" yaml:"side"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	Quantity      decimal.Decimal `json:"quantity" yaml:"quantity"`
	Fee           decimal.Decimal `json:"fee" yaml:"fee"`
	FeeAsset      string          `json:"fee_asset" yaml:"fee_asset"`
	Liquidity     Liquidity       `json:"liquidity" yaml:"liquidity"`
	Timestamp     time.Time       `json:"timestamp" yaml:"timestamp"`
}

type ExecutionKind string

const (
	ExecutionFill     ExecutionKind = "fill"
	ExecutionCanceled ExecutionKind = "canceled"
	ExecutionRejected ExecutionKind = "rejected"
)

// ExecutionReport is an asynchronous notification emitted by a connector.
// Fill is set only for ExecutionFill.
type ExecutionReport struct {
	Kind          ExecutionKind `json:"kind"`
	ClientOrderID string        `json:"client_order_id"`
	VenueOrderID  string        `json:"venue_order_id"`
	Fill          Fill          `json:"fill"`
	Reason        string        `json:"reason"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ExecutionHandler receives execution reports. Connectors call it in the
// order events happen for a given symbol.
type ExecutionHandler func(report ExecutionReport)

type AnomalyKind string

const (
	AnomalyDuplicateFill AnomalyKind = "duplicate_fill"
	AnomalyOverfill      AnomalyKind = "overfill"
	AnomalyLateEvent     AnomalyKind = "late_event"
	AnomalyUnknownOrder  AnomalyKind = "unknown_order"
	AnomalyInvalidEvent  AnomalyKind = "invalid_event"
	AnomalyFilledRegress AnomalyKind = "filled_regressed"
	AnomalySubscriberLag AnomalyKind = "subscriber_lag"
)

// Anomaly records a venue event that conflicted with local state and was not applied.
type Anomaly struct {
	ClientOrderID string      `json:"client_order_id"`
	Kind          AnomalyKind `json:"kind"`
	Detail        string      `json:"detail"`
	Timestamp     time.Time   `json:"timestamp"`
}
