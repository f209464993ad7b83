// pkg/api/client/client_test.go
package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := New(2, 5*time.Second)
	got := c.FetchBytes(context.Background(), srv.URL)
	if string(got) != "payload" {
		t.Errorf("FetchBytes: %q", got)
	}
}

func TestFetchBytesFailureIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(2, 5*time.Second)
	if got := c.FetchBytes(context.Background(), srv.URL); got != nil {
		t.Errorf("Сбой должен давать nil, получено %q", got)
	}
	if got := c.FetchBytes(context.Background(), "http://%41:bad"); got != nil {
		t.Errorf("Кривой адрес должен давать nil, получено %q", got)
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file-body"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.bin")
	c := New(2, 5*time.Second)
	if err := c.DownloadFile(context.Background(), srv.URL, path); err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "file-body" {
		t.Errorf("Содержимое файла: %q", data)
	}
}
