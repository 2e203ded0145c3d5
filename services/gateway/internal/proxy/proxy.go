package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// ErrBackendUnavailable is returned when the breaker rejects a call and no
// fallback payload is configured. The backend's raw transport error is never
// surfaced to the caller.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Backend identifies one downstream service. Immutable, configured at
// startup.
type Backend struct {
	Name        string
	BaseURL     string
	DefaultPath string
}

// Result is the outcome handed back to the gateway: either the backend's
// response or the degraded fallback payload.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Degraded   bool
}

// Proxy wraps one outbound call target behind a circuit breaker. One
// instance per backend; the breaker state is owned here and never shared.
type Proxy struct {
	backend  Backend
	breaker  *Breaker
	client   *http.Client
	fallback []byte
}

func New(backend Backend, cfg BreakerConfig) *Proxy {
	cfg = cfg.withDefaults()
	return &Proxy{
		backend:  backend,
		breaker:  NewBreaker(cfg),
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: []byte(fmt.Sprintf(`{"erro":"Serviço de %s indisponível"}`, backend.Name)),
	}
}

// Do forwards one call to the backend. Headers and body go through verbatim.
// Callers never wait longer than the configured timeout and never see the
// backend's raw error: a rejected or failed call degrades to the fallback.
//
// Failure policy: transport errors (timeouts included) and 5xx responses
// count against the breaker; 4xx responses are the backend speaking and are
// forwarded as-is.
func (p *Proxy) Do(ctx context.Context, method, path string, header http.Header, body io.Reader) (*Result, error) {
	if !p.breaker.Allow() {
		return p.degrade()
	}

	if path == "" {
		path = p.backend.DefaultPath
	}
	req, err := http.NewRequestWithContext(ctx, method, p.backend.BaseURL+path, body)
	if err != nil {
		// A request we could not even build says nothing about the
		// backend's health, so the breaker is left alone.
		return nil, fmt.Errorf("montar requisição para %s: %w", p.backend.Name, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("backend %s call failed: %v", p.backend.Name, err)
		p.breaker.RecordFailure()
		return p.degrade()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		p.breaker.RecordFailure()
		return p.degrade()
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		p.breaker.RecordFailure()
		return p.degrade()
	}

	p.breaker.RecordSuccess()
	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       respBody,
	}, nil
}

func (p *Proxy) degrade() (*Result, error) {
	if p.fallback == nil {
		return nil, ErrBackendUnavailable
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &Result{
		StatusCode: http.StatusServiceUnavailable,
		Header:     h,
		Body:       p.fallback,
		Degraded:   true,
	}, nil
}

func (p *Proxy) Backend() Backend {
	return p.backend
}

// BreakerState exposes the current mode for logging and tests.
func (p *Proxy) BreakerState() State {
	return p.breaker.State()
}
