// Package httpclient builds the outbound HTTP client shared by the remote
// identity provider and the board API client.
package httpclient

import (
	"net"
	"net/http"

	"github.com/worldboard/server/internal/shared/config"
	"github.com/worldboard/server/internal/utils/requestctx"
)

// UserAgent identifies board traffic to upstream services.
const UserAgent = "worldboard-server/1.0"

// New creates the outbound client. Requests carry the inbound request id,
// when the context has one, so identity lookups can be traced per request.
func New(cfg *config.HTTPClientConfig) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: &Transport{Base: base},
		Timeout:   cfg.ResponseTimeout,
	}
}

// Transport stamps outbound requests with the board's User-Agent and the
// X-Request-ID taken from the request context.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := requestctx.RequestID(req.Context())
	if requestID != "" || req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		if requestID != "" && req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", requestID)
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", UserAgent)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
