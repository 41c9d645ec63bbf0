package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var _ auth.Provider = (*Client)(nil)

func credentials(email, password string) ([]byte, error) {
	body, err := sjson.Set(`{}`, "email", email)
	if err != nil {
		return nil, err
	}
	if password != "" {
		if body, err = sjson.Set(body, "password", password); err != nil {
			return nil, err
		}
	}
	return []byte(body), nil
}

// identityFrom reads a GoTrue session answer. Without an access token the
// account exists but still has to be confirmed, so a zero Identity is returned.
func identityFrom(body string) auth.Identity {
	token := gjson.Get(body, "access_token").String()
	if token == "" {
		return auth.Identity{}
	}
	return auth.Identity{
		UserID:       gjson.Get(body, "user.id").String(),
		Email:        gjson.Get(body, "user.email").String(),
		AccessToken:  token,
		RefreshToken: gjson.Get(body, "refresh_token").String(),
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	body, err := credentials(email, password)
	if err != nil {
		return auth.Identity{}, err
	}
	res, err := c.do(ctx, c.writes, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Message == "" {
			return auth.Identity{}, auth.ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}
	id := identityFrom(res.BodyString)
	if id.AccessToken == "" {
		return auth.Identity{}, errors.New("supabase: sign in returned no session")
	}
	return id, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	body, err := credentials(email, password)
	if err != nil {
		return auth.Identity{}, err
	}
	res, err := c.do(ctx, c.writes, http.MethodPost, "/auth/v1/signup", "", body)
	if err != nil {
		return auth.Identity{}, err
	}
	return identityFrom(res.BodyString), nil
}

func (c *Client) ResetPassword(ctx context.Context, email, redirectTo string) error {
	body, err := credentials(email, "")
	if err != nil {
		return err
	}
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	_, err = c.do(ctx, c.writes, http.MethodPost, path, "", body)
	return err
}

func (c *Client) SignOut(ctx context.Context, id auth.Identity) error {
	if id.AccessToken == "" {
		return nil
	}
	_, err := c.do(ctx, c.writes, http.MethodPost, "/auth/v1/logout", id.AccessToken, nil)
	return err
}
