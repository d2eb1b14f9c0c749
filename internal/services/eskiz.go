package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// EskizConfig holds credentials for the Eskiz SMS gateway.
type EskizConfig struct {
	BaseURL  string
	Email    string
	Password string
	From     string
}

// EskizClient sends SMS through Eskiz. The bearer token is cached until it
// expires or the gateway rejects it.
type EskizClient struct {
	cfg    EskizConfig
	client *http.Client

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	group       singleflight.Group
}

func NewEskizClient(cfg EskizConfig, client *http.Client) *EskizClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &EskizClient{cfg: cfg, client: client}
}

type eskizAuthResponse struct {
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (e *EskizClient) cachedToken() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.token != "" && time.Now().Before(e.tokenExpiry) {
		return e.token, true
	}
	return "", false
}

const eskizLoginTimeout = 15 * time.Second

func (e *EskizClient) getToken(ctx context.Context) (string, error) {
	if t, ok := e.cachedToken(); ok {
		return t, nil
	}

	// the login is shared by every waiter, so one caller's cancellation
	// must not fail the others
	ch := e.group.DoChan("token", func() (interface{}, error) {
		if t, ok := e.cachedToken(); ok {
			return t, nil
		}
		loginCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eskizLoginTimeout)
		defer cancel()
		return e.login(loginCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *EskizClient) invalidateToken(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token == token {
		e.token = ""
		e.tokenExpiry = time.Time{}
	}
}

func (e *EskizClient) login(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"email":    e.cfg.Email,
		"password": e.cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("eskiz auth request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("eskiz auth request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("eskiz auth failed: status %d", resp.StatusCode)
	}

	var authResp eskizAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", fmt.Errorf("eskiz auth unmarshal: %w", err)
	}
	if authResp.Data.Token == "" {
		return "", errors.New("eskiz auth: empty token")
	}

	e.mu.Lock()
	e.token = authResp.Data.Token
	// tokens live 30 days; renew well before that
	e.tokenExpiry = time.Now().Add(29 * 24 * time.Hour)
	e.mu.Unlock()

	return authResp.Data.Token, nil
}

// errEskizUnauthorized signals that the cached token was rejected.
var errEskizUnauthorized = errors.New("eskiz: unauthorized")

// SendSMS delivers message to phone. A leading "+" is stripped. A rejected
// token is dropped and the error returned; the next call logs in again.
func (e *EskizClient) SendSMS(ctx context.Context, phone, message string) error {
	token, err := e.getToken(ctx)
	if err != nil {
		return err
	}

	err = e.send(ctx, token, phone, message)
	if errors.Is(err, errEskizUnauthorized) {
		e.invalidateToken(token)
	}
	return err
}

func (e *EskizClient) send(ctx context.Context, token, phone, message string) error {
	payload, _ := json.Marshal(map[string]string{
		"mobile_phone": strings.TrimPrefix(phone, "+"),
		"message":      message,
		"from":         e.cfg.From,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/message/sms/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("eskiz send request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("eskiz send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return errEskizUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("eskiz send failed: status %d", resp.StatusCode)
	}
	return nil
}
