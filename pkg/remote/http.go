package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/memo"
)

// BreakerConfig tunes the circuit breaker wrapped around every request.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after most of at least five requests failed at
// the transport level.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// HTTPRepository talks to a memos-compatible REST API.
type HTTPRepository struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	valid   *validator.Validate
	log     *logrus.Entry

	// ReadRetries is how many extra attempts idempotent reads get after a
	// transport failure.
	ReadRetries int
}

// Option customizes an HTTPRepository.
type Option func(*HTTPRepository)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *HTTPRepository) { r.client = c }
}

// WithBreaker replaces the default breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(r *HTTPRepository) { r.breaker = newBreaker(cfg, r.log) }
}

// NewHTTPRepository returns a repository for the server at baseURL,
// authenticating with token when non-empty.
func NewHTTPRepository(baseURL, token string, opts ...Option) (*HTTPRepository, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote: invalid server url %q", baseURL)
	}
	r := &HTTPRepository{
		baseURL:     strings.TrimRight(u.String(), "/"),
		token:       token,
		client:      &http.Client{Timeout: 30 * time.Second},
		valid:       validator.New(),
		log:         logging.NewLogger("remote").WithField("server", u.Host),
		ReadRetries: 1,
	}
	r.breaker = newBreaker(DefaultBreakerConfig(), r.log)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func newBreaker(cfg BreakerConfig, log *logrus.Entry) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "memos-remote",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
		// Only an unreachable server counts against the breaker; a rejected
		// request proves the server is up.
		IsSuccessful: func(err error) bool {
			return err == nil || !errs.Is(err, errs.CodeTransport)
		},
	})
}

func (r *HTTPRepository) CreateMemo(ctx context.Context, in MemoCreate) (*memo.Memo, error) {
	if err := r.validate(in); err != nil {
		return nil, err
	}
	var out MemoDTO
	if err := r.do(ctx, http.MethodPost, PathMemos, in, &out); err != nil {
		return nil, err
	}
	return out.ToMemo(), nil
}

func (r *HTTPRepository) UpdateMemo(ctx context.Context, id string, in MemoPatch) (*memo.Memo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.New(errs.CodeValidation, "memo id required")
	}
	if err := r.validate(in); err != nil {
		return nil, err
	}
	if in.ResourceIDs == nil {
		in.ResourceIDs = []string{}
	}
	var out MemoDTO
	if err := r.do(ctx, http.MethodPatch, PathMemos+"/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return out.ToMemo(), nil
}

func (r *HTTPRepository) DeleteMemo(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.CodeValidation, "memo id required")
	}
	return r.do(ctx, http.MethodDelete, PathMemos+"/"+url.PathEscape(id), nil, nil)
}

func (r *HTTPRepository) GetMemo(ctx context.Context, id string) (*memo.Memo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.New(errs.CodeValidation, "memo id required")
	}
	var out MemoDTO
	if err := r.read(ctx, PathMemos+"/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out.ToMemo(), nil
}

func (r *HTTPRepository) ListMemos(ctx context.Context) ([]*memo.Memo, error) {
	var out []MemoDTO
	if err := r.read(ctx, PathMemos, &out); err != nil {
		return nil, err
	}
	memos := make([]*memo.Memo, 0, len(out))
	for _, d := range out {
		memos = append(memos, d.ToMemo())
	}
	memo.SortRecent(memos)
	return memos, nil
}

func (r *HTTPRepository) CreateResource(ctx context.Context, in ResourceCreate) (*memo.Resource, error) {
	if err := r.validate(in); err != nil {
		return nil, err
	}
	var out ResourceDTO
	if err := r.do(ctx, http.MethodPost, PathResources, in, &out); err != nil {
		return nil, err
	}
	res := out.ToResource()
	return &res, nil
}

func (r *HTTPRepository) DeleteResource(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.CodeValidation, "resource id required")
	}
	return r.do(ctx, http.MethodDelete, PathResources+"/"+url.PathEscape(id), nil, nil)
}

func (r *HTTPRepository) ListResources(ctx context.Context, memoID string) ([]memo.Resource, error) {
	path := PathResources
	if memoID != "" {
		path += "?memoId=" + url.QueryEscape(memoID)
	}
	var out []ResourceDTO
	if err := r.read(ctx, path, &out); err != nil {
		return nil, err
	}
	list := make([]memo.Resource, 0, len(out))
	for _, d := range out {
		list = append(list, d.ToResource())
	}
	return list, nil
}

func (r *HTTPRepository) validate(v interface{}) error {
	if err := r.valid.Struct(v); err != nil {
		e := errs.Wrap(err, errs.CodeValidation, "invalid request")
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			e.WithDetail("field", fields[0].Field())
		}
		return e
	}
	return nil
}

// read retries transport failures of idempotent GETs.
func (r *HTTPRepository) read(ctx context.Context, path string, out interface{}) error {
	var err error
	for attempt := 0; attempt <= r.ReadRetries; attempt++ {
		err = r.do(ctx, http.MethodGet, path, nil, out)
		if err == nil || !errs.Is(err, errs.CodeTransport) || ctx.Err() != nil {
			return err
		}
		r.log.WithError(err).WithField("attempt", attempt+1).Debug("retrying read")
	}
	return err
}

func (r *HTTPRepository) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.roundTrip(ctx, method, path, body, out)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return errs.Wrap(err, errs.CodeTransport, "server temporarily unavailable")
	}
	return err
}

func (r *HTTPRepository) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, errs.CodeValidation, "encode request")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(err, errs.CodeValidation, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	log := r.log.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := r.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return errs.Wrap(err, errs.CodeTransport, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, errs.CodeTransport, "decode response")
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	var body ErrorDTO
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	var code errs.Code
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		code = errs.CodeAuth
	case resp.StatusCode == http.StatusNotFound:
		code = errs.CodeNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = errs.CodeValidation
	default:
		code = errs.CodeTransport
	}
	return errs.New(code, body.Error).
		WithDetail("status", resp.StatusCode).
		WithDetail("request", method+" "+path)
}
