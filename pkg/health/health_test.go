package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Ожидаемый статус 200, получен %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Ожидаемое тело 'OK', получено '%s'", string(body))
	}
}
