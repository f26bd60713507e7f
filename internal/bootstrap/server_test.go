package bootstrap

import (
	"context"
	"github.com/cockroachdb/errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/krishna9325/Car-Rental/config"
)

func newTestServers(t *testing.T, probes ...Probe) *Servers {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Address: "127.0.0.1:0"},
		GRPC: config.GRPCConfig{Address: "127.0.0.1:0"},
	}
	s, err := newServers(cfg, gin.New(), slog.New(slog.NewTextHandler(io.Discard, nil)), probes)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.conn.Close() })
	return s
}

func servingStatus(t *testing.T, s *Servers) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestCheckProbes(t *testing.T) {
	healthy := true
	s := newTestServers(t,
		Probe{Name: "postgres", Check: func(context.Context) error { return nil }},
		Probe{Name: "redis", Check: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		}},
	)

	s.checkProbes(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s))

	healthy = false
	s.checkProbes(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s))
}

func TestNewServers_MountsHealthz(t *testing.T) {
	s := newTestServers(t)

	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	// only GET is routed
	assert.Equal(t, http.StatusNotFound, w.Code)
}
