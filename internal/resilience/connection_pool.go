package resilience

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// PoolConfig sizes the shared transport
type PoolConfig struct {
	MaxIdle     int
	MaxPerHost  int
	IdleTimeout time.Duration
	// Timeout bounds each call end to end
	Timeout time.Duration
}

// DefaultPoolConfig returns the settings used for api.github.com
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdle:     20,
		MaxPerHost:  10,
		IdleTimeout: 90 * time.Second,
		Timeout:     10 * time.Second,
	}
}

// ConnectionPool is a single keep-alive http.Client guarded by a circuit breaker.
// It is safe for concurrent use.
type ConnectionPool struct {
	client         *http.Client
	transport      *http.Transport
	circuitBreaker *CircuitBreaker
}

// NewConnectionPool creates a new connection pool with circuit breaker
func NewConnectionPool(cfg PoolConfig, cb *CircuitBreaker) *ConnectionPool {
	def := DefaultPoolConfig()
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = def.MaxIdle
	}
	if cfg.MaxPerHost <= 0 {
		cfg.MaxPerHost = def.MaxPerHost
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cb == nil {
		cb = NewCircuitBreaker(CircuitBreakerConfig{})
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdle,
		MaxConnsPerHost:       cfg.MaxPerHost,
		MaxIdleConnsPerHost:   cfg.MaxPerHost,
		IdleConnTimeout:       cfg.IdleTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &ConnectionPool{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		transport:      transport,
		circuitBreaker: cb,
	}
}

// CircuitBreaker exposes the breaker guarding the pool
func (cp *ConnectionPool) CircuitBreaker() *CircuitBreaker {
	return cp.circuitBreaker
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"max_idle":              cp.transport.MaxIdleConns,
		"max_per_host":          cp.transport.MaxConnsPerHost,
		"timeout_ms":            cp.client.Timeout.Milliseconds(),
		"circuit_breaker_state": cp.circuitBreaker.State().String(),
		"consecutive_failures":  cp.circuitBreaker.Failures(),
	}
}

// DoRequest executes one HTTP request. Only transport failures count against
// the breaker; any HTTP status is a successful round trip. The caller closes
// the response body.
func (cp *ConnectionPool) DoRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	var (
		resp      *http.Response
		cancelErr error
	)

	err := cp.circuitBreaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err = cp.client.Do(req)
		duration := time.Since(start)

		if err != nil {
			// cancelled by the caller, not a transport failure
			if ctx.Err() == context.Canceled {
				cancelErr = err
				return nil
			}
			slog.Warn("Request failed", "url", url, "error", err, "duration_ms", duration.Milliseconds())
			return err
		}

		slog.Debug("Request completed", "url", url, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())
		return nil
	})

	if err != nil {
		return nil, err
	}
	if cancelErr != nil {
		return nil, cancelErr
	}

	return resp, nil
}

// Drain discards what is left of a response body so the connection can be reused
func Drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// Close releases idle connections
func (cp *ConnectionPool) Close() error {
	cp.transport.CloseIdleConnections()
	slog.Info("Connection pool closed")
	return nil
}
