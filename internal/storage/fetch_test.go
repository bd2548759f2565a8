package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, ct, err := Fetch(context.Background(), srv.Client(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "png-bytes" || ct != "image/png" {
		t.Errorf("Fetch = %q %q", data, ct)
	}

	if _, _, err := Fetch(context.Background(), srv.Client(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}
