package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/presence-gateway/internal/config"
)

// NewHTTPServer serves the gateway websocket at /gateway and prometheus
// metrics at /metrics.
func NewHTTPServer(cfg *config.Config, gateway http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/gateway", gateway)
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
