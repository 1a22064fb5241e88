package apiclient

import (
	"context"
	"errors"
	"time"

	"tienda-web/core"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the local-storage key holding the admin bearer token.
const TokenKey = "auth_token"

type TokenStore interface {
	// Token returns the stored token, or "" if there is none.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// ItemTokenStore keeps a visitor's token in their item store.
type ItemTokenStore struct {
	store     core.ItemStore
	visitorID string
}

func NewItemTokenStore(store core.ItemStore, visitorID string) *ItemTokenStore {
	return &ItemTokenStore{store: store, visitorID: visitorID}
}

func (s *ItemTokenStore) Token(ctx context.Context) (string, error) {
	item, err := s.store.Get(ctx, s.visitorID, TokenKey)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(item.Value), nil
}

func (s *ItemTokenStore) SetToken(ctx context.Context, token string) error {
	return s.store.Save(ctx, &core.Item{VisitorID: s.visitorID, Key: TokenKey, Value: []byte(token)})
}

func (s *ItemTokenStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.visitorID, TokenKey)
}

// TokenExpiry reads the exp claim without verifying the signature; the API
// verifies tokens, the storefront only needs to know when to stop sending one.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenUsable reports whether token is well-formed and not past its expiry.
func TokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{}); err != nil {
		return false
	}
	exp, ok := TokenExpiry(token)
	return !ok || now.Before(exp)
}
