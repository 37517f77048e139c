package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"creotrail/validator/pkg/store"
	"creotrail/validator/pkg/telemetry/tracing"
)

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient
// overrides it.
const DefaultTimeout = 6 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client talks to the validator backend.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithTLSConfig dials https base URLs with cfg. A nil cfg is ignored.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = cfg
		c.http = &http.Client{Timeout: c.http.Timeout, Transport: transport}
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserInfo is returned by Signup.
type UserInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is returned by Login.
type Session struct {
	UserInfo
	LastProcessedCmdID int64 `json:"last_processed_cmd_id"`
}

// Signup registers a user. An empty role registers a validator.
func (c *Client) Signup(ctx context.Context, name, email, password, role string) (*UserInfo, error) {
	body := map[string]string{"name": name, "email": email, "password": password, "role": role}
	var out UserInfo
	if err := c.do(ctx, http.MethodPost, "/signup", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks credentials. A non-empty role must match the user's role.
func (c *Client) Login(ctx context.Context, email, password, role string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	if role != "" {
		body["role"] = role
	}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Commands returns every corpus row.
func (c *Client) Commands(ctx context.Context) ([]store.CorpusRow, error) {
	var out []store.CorpusRow
	err := c.do(ctx, http.MethodGet, "/commands", nil, nil, &out)
	return out, err
}

// Contexts returns the arguments of one command.
func (c *Client) Contexts(ctx context.Context, commandID int64) ([]store.CorpusRow, error) {
	var out []store.CorpusRow
	err := c.do(ctx, http.MethodGet, "/contexts/"+itoa(commandID), nil, nil, &out)
	return out, err
}

// Mark records a classification of a command.
func (c *Client) Mark(ctx context.Context, userID, commandID int64, text string, cl store.Classification) error {
	body := map[string]any{"user_id": userID, "command_id": commandID, "command_text": text}
	return c.do(ctx, http.MethodPost, "/mark_"+string(cl), nil, body, nil)
}

// MarkDynamic records a dynamic classification.
func (c *Client) MarkDynamic(ctx context.Context, userID, commandID int64, text string) error {
	return c.Mark(ctx, userID, commandID, text, store.Dynamic)
}

// MarkStatic records a static classification.
func (c *Client) MarkStatic(ctx context.Context, userID, commandID int64, text string) error {
	return c.Mark(ctx, userID, commandID, text, store.Static)
}

// LastProcessed returns the user's resume index.
func (c *Client) LastProcessed(ctx context.Context, userID int64) (int64, error) {
	var out struct {
		LastCmdID int64 `json:"last_cmd_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/last_cmd/"+itoa(userID), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.LastCmdID, nil
}

// UpdateLastProcessed stores the user's resume index.
func (c *Client) UpdateLastProcessed(ctx context.Context, userID, lastCmdID int64) error {
	body := map[string]int64{"user_id": userID, "last_cmd_id": lastCmdID}
	return c.do(ctx, http.MethodPost, "/update_last_cmd", nil, body, nil)
}

// Validators lists validators ordered by id.
func (c *Client) Validators(ctx context.Context) ([]store.ValidatorRef, error) {
	var out []store.ValidatorRef
	err := c.do(ctx, http.MethodGet, "/validators", nil, nil, &out)
	return out, err
}

// ValidatorStats returns one validator's progress.
func (c *Client) ValidatorStats(ctx context.Context, userID int64) (*store.ValidatorStats, error) {
	var out store.ValidatorStats
	if err := c.do(ctx, http.MethodGet, "/validator_stats/"+itoa(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserCounts returns validator and viewer counts.
func (c *Client) UserCounts(ctx context.Context) (*store.RoleCounts, error) {
	var out store.RoleCounts
	if err := c.do(ctx, http.MethodGet, "/user_counts", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentActive lists validators by last activity.
func (c *Client) RecentActive(ctx context.Context) ([]store.ActiveValidator, error) {
	var out []store.ActiveValidator
	err := c.do(ctx, http.MethodGet, "/recent_active", nil, nil, &out)
	return out, err
}

// HistoryQuery filters a history request. Zero fields are omitted.
type HistoryQuery struct {
	Start     *time.Time
	End       *time.Time
	CommandID *int64
	// Type is "All", "Dynamic" or "Static".
	Type string
}

func (q HistoryQuery) values() url.Values {
	v := url.Values{}
	if q.Start != nil {
		v.Set("start", q.Start.UTC().Format(time.RFC3339Nano))
	}
	if q.End != nil {
		v.Set("end", q.End.UTC().Format(time.RFC3339Nano))
	}
	if q.CommandID != nil {
		v.Set("cmd_id", itoa(*q.CommandID))
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	return v
}

// History returns the user's classification history.
func (c *Client) History(ctx context.Context, userID int64, q HistoryQuery) ([]store.HistoryEntry, error) {
	var out []store.HistoryEntry
	err := c.do(ctx, http.MethodGet, "/history/"+itoa(userID), q.values(), nil, &out)
	return out, err
}

// HistoryCSV streams the user's history as CSV into w.
func (c *Client) HistoryCSV(ctx context.Context, userID int64, q HistoryQuery, w io.Writer) error {
	v := q.values()
	v.Set("format", "csv")
	resp, err := c.send(ctx, http.MethodGet, "/history/"+itoa(userID), v, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	return nil
}

// Ping checks that the backend answers on its root route.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodGet, "/", nil, nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and converts non-2xx responses into *APIError.
// The caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	tracing.Inject(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
