// Package httpserver constructs the shared *http.Server with hardened timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server for the given address and handler. Timeouts are
// set so a stalled client cannot hold a connection open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
