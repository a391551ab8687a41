package util

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestLogRecordsStatusAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := WithRequestLog("shop", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/styles", nil)
	req = req.WithContext(ContextWithLogger(context.Background(), logger))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["level"] != "WARN" {
		t.Fatalf("level = %v, want WARN", line["level"])
	}
	if line["status"] != float64(http.StatusTeapot) || line["bytes"] != float64(5) {
		t.Fatalf("unexpected log fields: %v", line)
	}
	if line["service"] != "shop" || line["path"] != "/api/styles" {
		t.Fatalf("unexpected log fields: %v", line)
	}
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	if LoggerFromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if LoggerFromContext(ContextWithLogger(context.Background(), custom)) != custom {
		t.Fatalf("expected stored logger")
	}
}
