package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tienda-web/core"

	"github.com/sirupsen/logrus"
)

const msgLoginFailed = "Error al iniciar sesión"

type Auth struct {
	c *Client
}

func (c *Client) Auth() *Auth { return &Auth{c: c} }

// LoginResult is the token and admin returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

// Login exchanges credentials for a token and stores it. The API identifies
// admins by username; the form collects it as an email.
func (a *Auth) Login(ctx context.Context, creds core.Credentials) (*LoginResult, error) {
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		User      struct {
			ID       flexibleID `json:"id"`
			Username string     `json:"username"`
		} `json:"user"`
	}
	body := map[string]string{"username": creds.Email, "password": creds.Password}
	if err := a.c.call(ctx, http.MethodPost, "/api/auth/login", body, false, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New(msgLoginFailed)
	}

	if err := a.c.tokens.SetToken(ctx, resp.Token); err != nil {
		return nil, err
	}
	logrus.WithField("username", resp.User.Username).Info("Admin logged in")

	return &LoginResult{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		User:      core.User{ID: string(resp.User.ID), Username: resp.User.Username},
	}, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.c.tokens.Clear(ctx)
}

func (a *Auth) Token(ctx context.Context) (string, error) {
	return a.c.tokens.Token(ctx)
}

// IsAuthenticated reports whether a usable token is stored.
func (a *Auth) IsAuthenticated(ctx context.Context) bool {
	token, err := a.c.tokens.Token(ctx)
	if err != nil {
		return false
	}
	return TokenUsable(token, time.Now())
}
