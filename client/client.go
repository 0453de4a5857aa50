package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

const errorBodyMaxSize = 8 * 1024 // 8 KiB

// Client talks to the task service over HTTP. Every method resolves to a
// result or one of the domain error types; transport faults never escape as
// anything else. All methods accept a context so callers can cancel or put
// deadlines on a call.
type Client struct {
	baseURL string
	http    *http.Client
	log     *log.Logger
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger overrides the logger used for per-request metrics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client for the service rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks fetches the full task set in the service's canonical order.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	m, ctx := newCallMetrics(ctx, c.log, http.MethodGet, "/tasks")
	var tasks []domain.Task
	status, err := c.do(ctx, http.MethodGet, "/tasks", "", nil, &tasks, "")
	m.Done(status, err)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask sends a creation payload and returns the created task with the
// server-assigned id and timestamps. A fresh idempotency key is attached so
// a retried request cannot create the task twice.
func (c *Client) CreateTask(ctx context.Context, req domain.TaskRequest) (domain.Task, error) {
	m, ctx := newCallMetrics(ctx, c.log, http.MethodPost, "/tasks")
	var created domain.Task
	status, err := c.do(ctx, http.MethodPost, "/tasks", "", req, &created, uuid.NewString())
	m.Done(status, err)
	if err != nil {
		return domain.Task{}, err
	}
	return created, nil
}

// UpdateTask sends a full-object update for the given id and returns the
// server's representation. The service requires title and description on
// every update, so req must carry the whole object.
func (c *Client) UpdateTask(ctx context.Context, id string, req domain.TaskRequest) (domain.Task, error) {
	m, ctx := newCallMetrics(ctx, c.log, http.MethodPut, "/tasks/:id")
	var updated domain.Task
	status, err := c.do(ctx, http.MethodPut, "/tasks/"+id, id, req, &updated, "")
	m.Done(status, err)
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	m, ctx := newCallMetrics(ctx, c.log, http.MethodDelete, "/tasks/:id")
	status, err := c.do(ctx, http.MethodDelete, "/tasks/"+id, id, nil, nil, "")
	m.Done(status, err)
	return err
}

// do performs one HTTP exchange. id is only used to build NotFound/Conflict
// errors; idemKey, when set, is sent as the Idempotency-Key header.
func (c *Client) do(ctx context.Context, method, path, id string, body, out any, idemKey string) (int, error) {
	op := method + " " + path
	var rdr io.Reader
	if body != nil {
		data, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return 0, &domain.NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, errorFromResponse(op, id, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	dec := sonic.ConfigStd.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return resp.StatusCode, &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

// errorFromResponse maps a non-2xx response onto the error taxonomy:
// 400/422 validation, 404 not found, 409 conflict, everything else a
// network-level fault.
func errorFromResponse(op, id string, resp *http.Response) error {
	msg := readErrorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "request rejected by task service"
		}
		return &domain.ValidationError{Message: msg}
	case http.StatusNotFound:
		return &domain.NotFoundError{ID: id}
	case http.StatusConflict:
		return &domain.ConflictError{ID: id}
	}
	if msg != "" {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)}
	}
	return &domain.NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
}

// readErrorMessage extracts the service's {"message": ...} error body,
// falling back to the raw text when the body is not JSON.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, errorBodyMaxSize))
	if err != nil || len(data) == 0 {
		return ""
	}
	var wire struct {
		Message string `json:"message"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &wire); err == nil && wire.Message != "" {
		return wire.Message
	}
	return strings.TrimSpace(string(data))
}
