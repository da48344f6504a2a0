package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// auditResponseWriter captures the status code and a copy of the response
// body for the audit trail.
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func newAuditResponseWriter(w http.ResponseWriter) *auditResponseWriter {
	return &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *auditResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

const maxAuditBodyBytes = 4096

// auditMiddleware records every mutating request. Reads, the websocket
// endpoint and /metrics pass through untouched.
func (s *Server) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.recorder == nil || (r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete) {
			next.ServeHTTP(w, r)
			return
		}

		var requestBody []byte
		if r.Body != nil {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBodyBytes))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), r.Body))
		}

		aw := newAuditResponseWriter(w)
		next.ServeHTTP(aw, r)

		response := aw.body.String()
		if len(response) > maxAuditBodyBytes {
			response = response[:maxAuditBodyBytes]
		}

		s.recorder.Record(repository.AuditLogPayload{
			Timestamp:  time.Now().UTC(),
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: aw.statusCode,
			EntityID:   pathEntityID(r.URL.Path),
			Request:    string(requestBody),
			Response:   response,
		})
	})
}

// pathEntityID pulls the id segment out of paths shaped like
// /orders/{id}/status. Mutating collection endpoints have no id yet.
func pathEntityID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
