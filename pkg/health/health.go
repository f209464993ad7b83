package health

import "net/http"

// HealthHandler возвращает ответ "OK" для проверки работоспособности сервера.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
