package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-artisan-market.git/internal/market"
)

// Identitas datang dari gateway yang sudah verifikasi token; service ini
// cuma baca hasilnya dari header. Tanpa header valid = 401.
const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

type ctxKey struct{}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		role := market.Role(r.Header.Get(HeaderRole))
		switch role {
		case market.RoleClient, market.RoleArtisan, market.RoleAdmin:
		default:
			id = ""
		}
		if id == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, market.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func FromContext(ctx context.Context) (market.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(market.Actor)
	return a, ok
}
