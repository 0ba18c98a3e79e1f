package common

import (
	"errors"
	"net/http"

	"github.com/physai/textbook-backend/internal/config"
	pkgHTTP "github.com/physai/textbook-backend/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds a pkg/http connector from shared client settings.
// Authentication differs per provider (Bearer token vs api-key header), so
// the caller supplies it through authOpts.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger, authOpts ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
	}
	opts = append(opts, authOpts...)

	return pkgHTTP.NewConnector(connCfg, opts...)
}

// IsTransient reports whether an upstream error is worth another attempt:
// connection-level failures, rate limiting and server-side errors.
func IsTransient(err error) bool {
	var netErr *pkgHTTP.NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var httpErr *pkgHTTP.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	return false
}
