package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	})

	WithTimeout(next, time.Minute).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !ok || time.Until(deadline) > time.Minute {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}

	WithTimeout(next, 0).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if ok {
		t.Error("zero timeout should not set a deadline")
	}
}

func TestAccessLog_RecordsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	AccessLog(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWithTimeout_SkipsWebsocketUpgrade(t *testing.T) {
	var hasDeadline bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})
	req := httptest.NewRequest("GET", "/api/generate/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	WithTimeout(next, time.Minute).ServeHTTP(httptest.NewRecorder(), req)
	if hasDeadline {
		t.Error("upgrade request should not get a deadline")
	}
}
