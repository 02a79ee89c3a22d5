package market

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("order not found")
	ErrForbidden           = errors.New("forbidden")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// StockShortage: detail per product supaya caller tahu persis apa yang kurang.
type StockShortage struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Details []StockShortage
}

func (e *InsufficientStockError) Error() string {
	ids := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		ids = append(ids, d.ProductID)
	}
	return fmt.Sprintf("insufficient stock: %s", strings.Join(ids, ", "))
}
