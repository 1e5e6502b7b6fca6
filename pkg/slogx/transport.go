package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs every outgoing request at
// debug level and failures at warn. The logger is taken from the request
// context when present, otherwise Logger is used.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := t.Logger
	if l, ok := req.Context().Value(ctxKey{}).(*slog.Logger); ok {
		logger = l
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		"req_id", req.Header.Get(RequestIDHeader),
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	start := time.Now()
	logger.Debug("api request started")

	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("api request failed", "duration_ms", elapsed, "err", err)
		return nil, err
	}

	logger.Debug("api response received", "status", resp.StatusCode, "duration_ms", elapsed)
	return resp, nil
}
