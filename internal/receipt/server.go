package receipt

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/zombor/spendy/internal/metrics"
)

// maxBodySize caps the analyze request body; high-resolution phone photos are large
const maxBodySize = 50 << 20

// Server handles HTTP requests for receipt analysis
type Server struct {
	service   *Service
	basicAuth BasicAuth
	metrics   *metrics.Metrics
	mux       *http.ServeMux

	maxBodySize int64
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth, m *metrics.Metrics) *Server {
	return NewServerWithMux(service, basicAuth, m, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, m *metrics.Metrics, mux *http.ServeMux) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		metrics:   m,
		mux:       mux,

		maxBodySize: maxBodySize,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(credentials[0]), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(credentials[1]), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// setCORSHeaders sets permissive CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all routes on the server's mux.
// /api/analyze is registered without a method so method matching stays case-insensitive.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/analyze", s.withRequestID(s.handleAnalyze))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
