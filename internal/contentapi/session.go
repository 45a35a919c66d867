package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mitaan/mitaan/internal/credstore"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Login exchanges username and password for an access token and stores it
// together with the refresh cookie.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.send(ctx, &request{
		method:      http.MethodPost,
		path:        "/admin/login",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	return c.storeTokens(resp)
}

// Logout tells the backend to revoke the session and clears local
// credentials. Local credentials are cleared even when the server call
// fails.
func (c *Client) Logout(ctx context.Context) error {
	_, serverErr := c.send(ctx, &request{
		method:  http.MethodPost,
		path:    "/admin/logout",
		auth:    true,
		retried: true,
	})
	if err := credstore.ClearSession(c.store); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	if serverErr != nil {
		return fmt.Errorf("logout: %w", serverErr)
	}
	return nil
}

// Verify reports whether the stored credential is accepted.
func (c *Client) Verify(ctx context.Context) (bool, error) {
	var resp verifyResponse
	if err := c.do(ctx, http.MethodGet, "/admin/verify", nil, &resp); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return resp.Authenticated, nil
}

// Refresh obtains a new access token using the stored refresh cookie.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refreshToken(ctx)
}

// Token returns the stored access token, or "" when logged out.
func (c *Client) Token() (string, error) {
	token, _, err := c.store.Get(credstore.KeyAdminToken)
	return token, err
}

// refreshToken collapses concurrent refreshes into one backend call.
// Callers arriving after a refresh has completed trigger a new one, which
// the backend tolerates.
func (c *Client) refreshToken(ctx context.Context) error {
	_, err, shared := c.refresh.Do("refresh", func() (any, error) {
		req := &request{method: http.MethodPost, path: "/admin/refresh"}
		if rt, ok, err := c.store.Get(credstore.KeyRefreshToken); err != nil {
			return nil, fmt.Errorf("load refresh token: %w", err)
		} else if ok && rt != "" {
			req.cookies = []*http.Cookie{{Name: refreshCookie, Value: rt}}
		}
		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}
		return nil, c.storeTokens(resp)
	})
	if shared {
		c.logger.Debug("joined in-flight credential refresh")
	}
	return err
}

func (c *Client) storeTokens(resp *response) error {
	var tr tokenResponse
	if err := json.Unmarshal(resp.body, &tr); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tr.Token == "" {
		return errors.New("backend returned an empty token")
	}
	if err := c.store.Set(credstore.KeyAdminToken, tr.Token); err != nil {
		return err
	}
	for _, ck := range resp.cookies {
		if ck.Name != refreshCookie {
			continue
		}
		if ck.Value == "" || ck.MaxAge < 0 {
			return c.store.Delete(credstore.KeyRefreshToken)
		}
		if err := c.store.Set(credstore.KeyRefreshToken, ck.Value); err != nil {
			return err
		}
		c.logger.Debug("refresh cookie rotated")
	}
	return nil
}
