package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNewLevel(t *testing.T) {
	if got := New("debug", true).GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", got)
	}
	if got := New("nonsense", false).GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %s, want info", got)
	}
	if _, ok := New("info", false).Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("production logger should use the JSON formatter")
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  logrus.Level
	}{
		{"ok", http.StatusOK, logrus.InfoLevel},
		{"not found", http.StatusNotFound, logrus.WarnLevel},
		{"gateway", http.StatusBadGateway, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			h := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("x"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/car/", nil))

			entry := hook.LastEntry()
			if entry == nil {
				t.Fatal("no log entry")
			}
			if entry.Level != tt.level {
				t.Errorf("level = %s, want %s", entry.Level, tt.level)
			}
			if entry.Data["status"] != tt.status || entry.Data["path"] != "/car/" {
				t.Errorf("fields = %v", entry.Data)
			}
		})
	}
}

func TestMiddlewareImplicitOK(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got := hook.LastEntry().Data["status"]; got != http.StatusOK {
		t.Errorf("status = %v, want 200", got)
	}
}
