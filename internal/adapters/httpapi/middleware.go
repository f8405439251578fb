package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// withLogging envuelve un handler con logging de petición y duración.
func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// withRateLimit aplica un limitador global de peticiones. La app es de
// sobremesa (datos a escala humana); el limitador solo evita que un
// cliente roto machaque el SQLite.
func withRateLimit(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// jsonResponse escribe una respuesta JSON con el status dado. Se codifica
// a un buffer antes de tocar el ResponseWriter: si la codificación falla,
// el cliente recibe un 500 real y no un status bueno con body vacío.
func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
		http.Error(w, "response encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write JSON response", "err", err)
	}
}

// errorResponse escribe un error JSON con el status dado.
func errorResponse(w http.ResponseWriter, statusCode int, message string) {
	jsonResponse(w, statusCode, errorBody{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// parseJSONBody decodifica el body en el struct dado.
func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
