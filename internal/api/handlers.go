package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/filters"
	"github.com/smukkama/city-analytics/internal/protocol"
)

const (
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second
	readyTimeout   = 2 * time.Second
)

var errInvalidBody = errors.New("request body must be a JSON object")

// handleAnalytics serves GET and POST /api/data/analytics. Filters come
// from the query string, overridden key by key by a JSON body.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := s.cfg.Clock.Now()
	reqID := RequestIDFrom(ctx)
	logger := s.logger.With("request_id", reqID)

	raw, err := readFilters(w, r)
	if err != nil {
		logger.Warn("rejecting analytics request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f := filters.Normalize(raw)
	reference := s.cfg.Engine.Reference()
	// label by the resolved variant so unknown names share the aqi series
	metric := analytics.MetricFor(f.Metric).Name

	if resp := s.cached(ctx, f, reference); resp != nil {
		s.cfg.Metrics.ObserveCacheHit(metric, s.cfg.Clock.Since(start))
		logger.Debug("analytics cache hit", "metric", metric)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp, err := s.cfg.Engine.Run(ctx, f, reference)
	s.cfg.Metrics.ObserveRequest(metric, s.cfg.Clock.Since(start), err)
	if err != nil {
		logger.Error("analytics request failed", "metric", f.Metric, "city", f.City, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.cfg.Metrics.ObserveAlerts(resp.Alerts)

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Set(ctx, f, reference, resp); err != nil {
			logger.Warn("failed to cache analytics response", "error", err)
		}
	}

	s.publish(ctx, reqID, f, reference, resp)

	writeJSON(w, http.StatusOK, resp)
}

// cached returns a cached response or nil. Cache failures are treated as misses.
func (s *Server) cached(ctx context.Context, f filters.Filters, reference time.Time) *analytics.Response {
	if s.cfg.Cache == nil {
		return nil
	}

	resp, err := s.cfg.Cache.Get(ctx, f, reference)
	switch {
	case err != nil:
		s.cfg.Metrics.Cache.WithLabelValues("error").Inc()
		s.logger.Warn("analytics cache unavailable", "request_id", RequestIDFrom(ctx), "error", err)
		return nil
	case resp == nil:
		s.cfg.Metrics.Cache.WithLabelValues("miss").Inc()
		return nil
	default:
		s.cfg.Metrics.Cache.WithLabelValues("hit").Inc()
		return resp
	}
}

// publish forwards freshly raised alerts. Failures are logged only.
func (s *Server) publish(ctx context.Context, reqID string, f filters.Filters, reference time.Time, resp *analytics.Response) {
	if s.cfg.Publisher == nil || len(resp.Alerts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msgs := protocol.NewAlertMessages(reqID, f, reference, s.cfg.Clock.Now(), resp)
	if err := s.cfg.Publisher.PublishAlerts(ctx, msgs); err != nil {
		s.cfg.Metrics.AlertsPublished.WithLabelValues("error").Inc()
		s.logger.Error("failed to publish alerts", "request_id", reqID, "count", len(msgs), "error", err)
		return
	}
	s.cfg.Metrics.AlertsPublished.WithLabelValues("success").Inc()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "OK",
		"timestamp":   s.cfg.Clock.Now().UTC().Format(time.RFC3339Nano),
		"environment": s.cfg.Environment,
		"database":    s.cfg.Database,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.cfg.Ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// readFilters merges query parameters with a JSON object body. Body values
// win. Scalars are taken in their text form; nested values and nulls are
// ignored.
func readFilters(w http.ResponseWriter, r *http.Request) (filters.Raw, error) {
	raw := filters.Raw{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	if r.Body == nil || r.Method == http.MethodGet {
		return raw, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return raw, nil
	}

	doc := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !doc.IsObject() {
		return nil, errInvalidBody
	}

	doc.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			for k := range raw {
				if strings.EqualFold(k, key.String()) {
					delete(raw, k)
				}
			}
			raw[key.String()] = value.String()
		}
		return true
	})
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
