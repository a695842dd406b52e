package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a server listening on addr that only responds to the
// `/metrics` endpoint, serving the metrics of the given gatherer.
func NewServer(log zerolog.Logger, addr string, gatherer prometheus.Gatherer) *Server {
	router := mux.NewRouter()
	endpoint := "/metrics"
	router.Handle(endpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second},
		log:    log.With().Str("component", "metrics_server").Str("address", addr).Str("endpoint", endpoint).Logger(),
	}
}

// Ready starts serving and returns a closed channel.
func (m *Server) Ready() <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		m.log.Info().Msg("metrics server started")
		if err := m.server.ListenAndServe(); err != nil {
			// http.ErrServerClosed is returned when Close or Shutdown is called
			if errors.Is(err, http.ErrServerClosed) {
				m.log.Debug().Err(err).Msg("metrics server shutdown")
			} else {
				m.log.Err(err).Msg("error running metrics server")
			}
		}
	}()
	close(ready)
	return ready
}

// Done returns a channel that will close when shutdown is complete.
func (m *Server) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = m.server.Shutdown(ctx)
		cancel()
		close(done)
	}()
	return done
}
