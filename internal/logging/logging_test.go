package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/Tomlord1122/todo-api/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		debug bool
		want  log.Level
	}{
		{"explicit", "error", false, log.ErrorLevel},
		{"explicit beats debug", "warn", true, log.WarnLevel},
		{"empty debug", "", true, log.DebugLevel},
		{"empty release", "", false, log.InfoLevel},
		{"unknown", "chatty", false, log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.in, tt.debug); got != tt.want {
				t.Errorf("ParseLevel(%q, %v): got %v, want %v", tt.in, tt.debug, got, tt.want)
			}
		})
	}
}

func TestNewProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.Defaults(config.Production))
	logger.Info("started", "port", 8080)

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"port":8080`) {
		t.Errorf("expected port field in %q", out)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos", nil))

	out := buf.String()
	if !strings.Contains(out, "/api/todos") || !strings.Contains(out, "418") {
		t.Errorf("request log line missing path or status: %q", out)
	}
}
