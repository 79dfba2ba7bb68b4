package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/mewayz/progression/internal/metrics"
)

// captureHandler records the request context it was served with
type captureHandler struct {
	ctx context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	tag := func(s string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(s))
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("H"))
	})

	tests := []struct {
		name        string
		middlewares []Middleware
		want        string
	}{
		{"none", nil, "H"},
		{"single", []Middleware{tag("a")}, "aH"},
		{"outermost first", []Middleware{tag("1"), tag("2"), tag("3")}, "123H"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(Chain(handler, tt.middlewares...), httptest.NewRequest(http.MethodGet, "/", nil))
			if rr.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rr.Body.String(), tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("mints uuid", func(t *testing.T) {
		h := &captureHandler{}
		rr := serve(RequestID(h), httptest.NewRequest(http.MethodGet, "/", nil))

		id := rr.Header().Get(RequestIDHeader)
		if len(id) != 36 || strings.Count(id, "-") != 4 {
			t.Errorf("expected a uuid request id, got %q", id)
		}
		if got := GetRequestID(h.ctx); got != id {
			t.Errorf("context id %q does not match header %q", got, id)
		}
	})

	t.Run("keeps caller id", func(t *testing.T) {
		h := &captureHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-7")
		rr := serve(RequestID(h), req)

		if got := rr.Header().Get(RequestIDHeader); got != "upstream-7" {
			t.Errorf("header = %q, want upstream-7", got)
		}
		if got := GetRequestID(h.ctx); got != "upstream-7" {
			t.Errorf("context id = %q, want upstream-7", got)
		}
	})
}

func TestGetRequestID_MissingOrWrongType(t *testing.T) {
	t.Parallel()

	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	ctx := context.WithValue(context.Background(), RequestIDKey, 42)
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("expected empty id for non-string value, got %q", got)
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("passes through", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		rr := serve(Recovery(h), httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
			t.Errorf("unexpected response %d %q", rr.Code, rr.Body.String())
		}
	})

	t.Run("panic becomes problem details", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("scorer exploded")
		})
		rr := serve(Recovery(h), httptest.NewRequest(http.MethodGet, "/", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(rr.Body.String(), `"status":500`) {
			t.Errorf("expected problem body, got %q", rr.Body.String())
		}
	})
}

func TestCompress(t *testing.T) {
	t.Parallel()

	const payload = `{"data":[{"handle":"player-abc","rank":1}]}`
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	t.Run("gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "br, gzip")
		rr := serve(Compress(h), req)

		if rr.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("expected gzip encoding, got %q", rr.Header().Get("Content-Encoding"))
		}
		reader, err := gzip.NewReader(rr.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer func() { _ = reader.Close() }()
		body, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != payload {
			t.Errorf("decompressed body = %q", body)
		}
	})

	t.Run("plain", func(t *testing.T) {
		rr := serve(Compress(h), httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Header().Get("Content-Encoding") != "" {
			t.Error("should not compress without gzip Accept-Encoding")
		}
		if rr.Body.String() != payload {
			t.Errorf("body = %q", rr.Body.String())
		}
	})
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("body"))
	if rw.statusCode != http.StatusOK {
		t.Errorf("default status = %d, want 200", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("captured status = %d, want 404", rw.statusCode)
	}
}

func TestLogger_WritesRequestLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/leaderboards/missing/rankings", nil)
	rr := serve(Chain(h, RequestID, Logger(logger)), req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	line := buf.String()
	for _, want := range []string{`"status":404`, `"path":"/v1/leaderboards/missing/rankings"`, `"request_id":"` + rr.Header().Get(RequestIDHeader)} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/progress/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	route := "GET /v1/progress/{userId}"
	before := counterValue(t, metrics.HTTPRequests.WithLabelValues(route, "418"))
	serve(Metrics(mux), httptest.NewRequest(http.MethodGet, "/v1/progress/u1", nil))
	serve(Metrics(mux), httptest.NewRequest(http.MethodGet, "/v1/progress/u2", nil))

	if got := counterValue(t, metrics.HTTPRequests.WithLabelValues(route, "418")) - before; got != 2 {
		t.Errorf("counted %v requests, want 2", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
