// Package auth defines the API key identity model used to guard mutating
// till operations.
package auth

import (
	"context"
	"slices"
)

// ScopeOperateTill authorizes cart mutations and register session
// operations.
const ScopeOperateTill = "operate_till"

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
