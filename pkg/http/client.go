// Package http builds tuned HTTP clients for the external planes the
// service talks to: the RouterOS REST API, the GenieACS northbound
// interface and the notification gateway.
package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// ClientConfig holds transport tuning for one upstream
type ClientConfig struct {
	// Connection pooling
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	// Timeouts
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// Keep-alive
	DisableKeepAlives bool
	KeepAlive         time.Duration

	// TLS
	InsecureSkipVerify bool
	MinTLSVersion      uint16
}

// RouterClientConfig tunes for the RouterOS REST API: a single LAN host,
// small responses, and self-signed certificates on most installs.
func RouterClientConfig(skipTLSVerify bool) *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,

		DisableKeepAlives: false,
		KeepAlive:         60 * time.Second,

		InsecureSkipVerify: skipTLSVerify,
		MinTLSVersion:      tls.VersionTLS12,
	}
}

// ACSClientConfig tunes for the GenieACS NBI. Task posts with a
// connection request block until the CPE responds, so the header timeout
// is generous.
func ACSClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     40,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,

		DisableKeepAlives: false,
		KeepAlive:         60 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// NotifyClientConfig tunes for the notification gateway: low volume,
// short per-message deadline.
func NotifyClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        5,
		MaxIdleConnsPerHost: 5,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     30 * time.Second,

		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,

		DisableKeepAlives: false,
		KeepAlive:         30 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// NewClient creates an HTTP client with the given transport tuning and
// overall request timeout
func NewClient(cfg *ClientConfig, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,

		DisableKeepAlives: cfg.DisableKeepAlives,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			MinVersion:         cfg.MinTLSVersion,
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
