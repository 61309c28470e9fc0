package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/media"
	"github.com/iburimskiy/neural-nexus/internal/validation"
)

// Query is one recommendation search.
type Query struct {
	Text  string `json:"text"`
	TopK  int    `json:"top_k"`
	Model string `json:"model"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type signupBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type similarBody struct {
	ID media.ItemID `json:"id"`
}

// Login exchanges credentials for a bearer token. The form is the OAuth2
// password flow the service expects.
func (c *Client) Login(ctx context.Context, creds validation.Credentials) (string, error) {
	if err := validation.ValidateStruct(&creds); err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var tok tokenResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/login", form: form}, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("login: response carried no access token")
	}
	return tok.AccessToken, nil
}

// Signup registers an account. It does not log in.
func (c *Client) Signup(ctx context.Context, s validation.Signup) error {
	if err := validation.ValidateStruct(&s); err != nil {
		return err
	}
	body := signupBody{Username: s.Username, Email: s.Email, Password: s.Password}
	return c.do(ctx, request{method: http.MethodPost, path: "/signup", body: body}, nil)
}

// Recommend runs a search. With a token it uses the personalized endpoint.
// Zero TopK and empty Model take the configured defaults.
func (c *Client) Recommend(ctx context.Context, q Query, token string) ([]media.MediaItem, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	if q.TopK <= 0 {
		q.TopK = c.topK
	}
	if q.Model == "" {
		q.Model = c.model
	}
	if q.Model != config.DefaultModel && q.Model != config.AlternateModel {
		return nil, fmt.Errorf("api: unknown model %q", q.Model)
	}

	path := "/recommend"
	if token != "" {
		path = "/recommend/personalized"
	}
	var items []media.MediaItem
	err := c.do(ctx, request{method: http.MethodPost, path: path, token: token, body: q}, &items)
	return items, err
}

// Similar lists items near id in embedding space.
func (c *Client) Similar(ctx context.Context, id media.ItemID) ([]media.MediaItem, error) {
	var items []media.MediaItem
	err := c.do(ctx, request{method: http.MethodPost, path: "/similar", body: similarBody{ID: id}}, &items)
	return items, err
}

func (c *Client) AddToWishlist(ctx context.Context, token string, id media.ItemID) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/wishlist/add/" + url.PathEscape(string(id)),
		token:  token,
		auth:   true,
	}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, token string, id media.ItemID) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/wishlist/remove/" + url.PathEscape(string(id)),
		token:  token,
		auth:   true,
	}, nil)
}

// Wishlist returns the saved items of the logged-in user.
func (c *Client) Wishlist(ctx context.Context, token string) ([]media.MediaItem, error) {
	var items []media.MediaItem
	err := c.do(ctx, request{method: http.MethodGet, path: "/wishlist", token: token, auth: true}, &items)
	return items, err
}

// Health pings the service. Any 2xx counts as online.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/docs"}, nil)
}
