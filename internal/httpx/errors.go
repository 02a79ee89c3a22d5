package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-artisan-market.git/internal/market"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainErr memetakan taksonomi error domain ke status code kontrak.
// Yang tidak dikenal dianggap kegagalan transaksi -> 500 tanpa efek parsial.
func writeDomainErr(w http.ResponseWriter, err error) {
	var it *market.InvalidTransitionError
	var is *market.InsufficientStockError
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case errors.Is(err, market.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, market.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty_cart"})
	case errors.Is(err, market.ErrPaymentNotConfirmed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_not_confirmed"})
	case errors.Is(err, market.ErrCartItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart_item_not_found"})
	case errors.As(err, &it):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid_transition", "from": it.From, "to": it.To,
		})
	case errors.As(err, &is):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "insufficient_stock", "details": is.Details,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "transaction_failure"})
	}
}
