package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"enem_quiz_backend/pkg/answers"
)

// authClient talks to the /api/auth routes of the server.
type authClient struct {
	baseURL string
	http    *http.Client
}

func newAuthClient(baseURL string, hc *http.Client) *authClient {
	return &authClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return e.Message
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginResult struct {
	Token   string          `json:"token"`
	Session answers.Session `json:"session"`
}

func (c *authClient) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, "", http.MethodPost, "/api/auth/otp/send", map[string]string{"email": email}, nil)
}

// Verify exchanges the emailed code for a session carrying its bearer token.
func (c *authClient) Verify(ctx context.Context, email, code string) (*answers.Session, error) {
	var res loginResult
	body := map[string]string{"email": email, "otp": code}
	if err := c.do(ctx, "", http.MethodPost, "/api/auth/otp/verify", body, &res); err != nil {
		return nil, err
	}
	sess := res.Session
	sess.Token = res.Token
	return &sess, nil
}

func (c *authClient) Session(ctx context.Context, token string) (*answers.Session, error) {
	var sess answers.Session
	if err := c.do(ctx, token, http.MethodGet, "/api/auth/session", nil, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	return &sess, nil
}

func (c *authClient) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, token, http.MethodPost, "/api/auth/sign-out", nil, nil)
}

func (c *authClient) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
