package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/pos-till-service/internal/domain/auth"
)

// APIKeyAuth returns a middleware that authenticates mutating requests via
// HMAC-SHA256 hashed API keys presented in the api_key header. The stored
// hash is compared in constant time to guard against timing side-channels
// even when the repository lookup already succeeded.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("api_key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !info.HasScope(auth.ScopeOperateTill) {
				writeError(w, http.StatusForbidden, "missing scope")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
