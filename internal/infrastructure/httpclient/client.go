// Package httpclient construye el cliente HTTP compartido por los transportes fiscales.
// La configuración TLS se decide una sola vez por proceso y se inyecta por referencia.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Config configuración explícita del transporte.
type Config struct {
	Timeout               time.Duration
	InsecureSkipVerify    bool // solo entornos de prueba; config.Validate lo rechaza en producción
	MaxIdleConnsPerHost   int
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultConfig 30 s de timeout y verificación TLS activa.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 4,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// New crea un *http.Client con transporte propio (nunca modifica http.DefaultTransport).
func New(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // controlado por config, prohibido en producción
		},
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}
