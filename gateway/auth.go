package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/unionhall/gameshelf/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string    `json:"token"`
	Role     string    `json:"role"`
	Identity string    `json:"identity"`
	Expiry   time.Time `json:"expiry"`
}

func (r *authResponse) session() (*model.Session, error) {
	role, err := model.ParseRole(r.Role)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		Token:    r.Token,
		Role:     role,
		Identity: r.Identity,
		Expiry:   r.Expiry,
	}, nil
}

// Login exchanges a username/password pair for a credential. A store-side
// rejection comes back as ErrInvalidCredentials; anything else is a transport
// or server failure.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Session, error) {
	var resp authResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", nil, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return resp.session()
}

// Renew exchanges a still-valid token for a fresh one. The store answers 401
// once the token has expired or been revoked.
func (c *Client) Renew(ctx context.Context, token string) (*model.Session, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", token, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.session()
}
