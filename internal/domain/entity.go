package domain

import (
	"time"
)

// ExecutionRecord is one journaled entry outcome.
// Prices are stored as strings to keep decimal precision in SQLite.
type ExecutionRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    string    `json:"order_id" gorm:"index"`
	Symbol     string    `json:"symbol" gorm:"index"`
	Direction  string    `json:"direction"`
	Quantity   string    `json:"quantity"`
	RefPrice   string    `json:"ref_price"`
	Leverage   int       `json:"leverage"`
	Filled     bool      `json:"filled" gorm:"index"`
	OrderType  string    `json:"order_type"` // LIMIT, MARKET or empty
	FillPrice  string    `json:"fill_price"`
	FeePaid    string    `json:"fee_paid"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// NewExecutionRecord builds a journal row from a request and its outcome.
// execErr may be nil.
func NewExecutionRecord(req OrderRequest, res ExecutionResult, execErr error, elapsed time.Duration) *ExecutionRecord {
	rec := &ExecutionRecord{
		OrderID:    res.OrderID,
		Symbol:     req.Symbol,
		Direction:  req.Direction.String(),
		Quantity:   req.Quantity.String(),
		RefPrice:   req.ReferencePrice.String(),
		Leverage:   req.Leverage,
		Filled:     res.Filled,
		OrderType:  res.OrderType,
		FillPrice:  res.FillPrice.String(),
		FeePaid:    res.FeePaid.String(),
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	return rec
}
