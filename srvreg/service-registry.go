package srvreg

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"encoding/json"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/campuschain/room-reservation/reservation"
)

// Request represents the client's original HTTP request in a transport
// independent form, so handlers can be exercised without a server.
type Request struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	RemoteAddr string            `json:"remote_addr"`
	RequestID  string            `json:"request_id"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Response represents the computed response for a request.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Error      string            `json:"error,omitempty"`
}

// ServiceHandler is a function type for service handlers
type ServiceHandler func(*Request) (*Response, error)

// RouteKey is used to uniquely identify a route
type RouteKey struct {
	Method string
	Path   string
}

// ServiceRegistry manages all service handlers
type ServiceRegistry struct {
	handlers    map[RouteKey]ServiceHandler
	exactRoutes map[RouteKey]bool // Whether a route is exact or pattern-based
	mu          sync.RWMutex
	service     *reservation.Service
	logger      cmtlog.Logger
}

// ConvertHTTPRequest converts an http.Request to a Request
func ConvertHTTPRequest(r *http.Request, requestID string) (*Request, error) {
	headers := make(map[string]string)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	body := ""
	if r.Body != nil {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(string(bodyBytes))
		body = compactJSON(raw)
	}

	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		RequestID:  requestID,
		Timestamp:  time.Now(),
	}, nil
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(service *reservation.Service, logger cmtlog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		handlers:    make(map[RouteKey]ServiceHandler),
		exactRoutes: make(map[RouteKey]bool),
		service:     service,
		logger:      logger,
	}
}

// RegisterHandler registers a new service handler
func (sr *ServiceRegistry) RegisterHandler(method, path string, isExactPath bool, handler ServiceHandler) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	sr.handlers[key] = handler
	sr.exactRoutes[key] = isExactPath
}

// GetHandlerForPath finds the appropriate handler for a given path and
// a boolean of whether or not the handler was found
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (ServiceHandler, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	// Try exact match first
	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	if handler, ok := sr.handlers[key]; ok {
		if sr.exactRoutes[key] {
			return handler, true
		}
	}

	// Try pattern matching
	for routeKey, handler := range sr.handlers {
		if routeKey.Method != strings.ToUpper(method) {
			continue
		}
		if sr.exactRoutes[routeKey] {
			continue
		}
		if matchPath(routeKey.Path, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath does simple pattern matching for routes.
// It supports patterns like "/reservations/:id/cancel" matching
// "/reservations/123/cancel"
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := 0; i < len(patternParts); i++ {
		if strings.HasPrefix(patternParts[i], ":") {
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// RegisterDefaultServices sets up the reservation system endpoints
func (sr *ServiceRegistry) RegisterDefaultServices() {
	sr.RegisterHandler("POST", "/users/register", true, sr.RegisterUserHandler)
	sr.RegisterHandler("POST", "/reservations", true, sr.MakeReservationHandler)
	sr.RegisterHandler("POST", "/reservations/:id/cancel", false, sr.CancelReservationHandler)
	sr.RegisterHandler("GET", "/reservations", true, sr.ListReservationsHandler)
	sr.RegisterHandler("GET", "/reservations/user/:id", false, sr.UserReservationsHandler)
	sr.RegisterHandler("POST", "/rooms/available", true, sr.AvailableRoomsHandler)
	sr.RegisterHandler("POST", "/mine", true, sr.MineHandler)
	sr.RegisterHandler("GET", "/chain", true, sr.ChainHandler)
	sr.RegisterHandler("GET", "/stats", true, sr.StatsHandler)
	sr.RegisterHandler("GET", "/validate", true, sr.ValidateHandler)
	sr.RegisterHandler("GET", "/network", true, sr.NetworkHandler)
}

// GenerateResponse executes the request and generates a response
func (req *Request) GenerateResponse(services *ServiceRegistry) (*Response, error) {
	handler, found := services.GetHandlerForPath(req.Method, req.Path)
	if !found {
		return &Response{
			StatusCode: http.StatusNotFound,
			Headers:    map[string]string{"Content-Type": "text/plain"},
			Body:       fmt.Sprintf("Service not found for %s %s", req.Method, req.Path),
		}, nil
	}

	return handler(req)
}

func compactJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		// If it's not JSON, return trimmed original
		return strings.TrimSpace(body)
	}
	return buf.String()
}
