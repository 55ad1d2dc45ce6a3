package receipt

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// analyzeRequest is the analyze endpoint body
type analyzeRequest struct {
	ImageData string `json:"imageData"`
}

// writeJSON writes v as JSON with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// withRequestID tags the response with an X-Request-ID and logs the request
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next(w, r)
		slog.Info("Request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	}
}

// handleAnalyze dispatches on the method; only POST runs the pipeline
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch strings.ToUpper(r.Method) {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Spendy"`)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
			return
		}
		s.analyze(w, r)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	}
}

// analyze decodes the image, runs the service and writes the receipt
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	}()

	var req analyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("Analyze request too large", "limit", tooLarge.Limit)
			s.metrics.AnalyzeRequests.WithLabelValues("input_error").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Image too large"})
			return
		}
		slog.Warn("Error decoding analyze request", "error", err)
		req.ImageData = ""
	}

	if strings.TrimSpace(req.ImageData) == "" {
		s.metrics.AnalyzeRequests.WithLabelValues("input_error").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No image data provided"})
		return
	}

	receipt, err := s.service.Analyze(r.Context(), req.ImageData)
	if err != nil {
		status, body, outcome := mapError(err)
		slog.Error("Error analyzing receipt", "status", status, "error", err)
		s.metrics.AnalyzeRequests.WithLabelValues(outcome).Inc()
		writeJSON(w, status, body)
		return
	}

	s.metrics.AnalyzeRequests.WithLabelValues("ok").Inc()

	if r.URL.Query().Get("view") == "flat" {
		writeJSON(w, http.StatusOK, receipt.Flat())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
