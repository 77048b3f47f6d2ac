package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/campuschain/room-reservation/reservation"
	"github.com/campuschain/room-reservation/srvreg"
)

// WebServer handles HTTP requests
type WebServer struct {
	httpAddr        string
	server          *http.Server
	logger          cmtlog.Logger
	startTime       time.Time
	serviceRegistry *srvreg.ServiceRegistry
	service         *reservation.Service
}

// ClientResponse is the response format sent to clients
type ClientResponse struct {
	StatusCode int               `json:"-"` // Not included in JSON
	Headers    map[string]string `json:"-"` // Not included in JSON
	Body       interface{}       `json:"body"`
	Meta       ResponseMeta      `json:"meta"`
	NodeID     string            `json:"node_id"`
}

// ResponseMeta carries request tracking information back to the client.
type ResponseMeta struct {
	RequestID    string       `json:"request_id"`
	ConfirmTime  time.Time    `json:"confirm_time"`
	ResponseInfo ResponseInfo `json:"response_info"`
}

// ResponseInfo contains information about the response
type ResponseInfo struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	BodyLength  int    `json:"body_length"`
}

// NewWebServer creates a new web server
func NewWebServer(httpPort string, logger cmtlog.Logger, serviceRegistry *srvreg.ServiceRegistry, service *reservation.Service) *WebServer {
	mux := http.NewServeMux()

	server := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:    ":" + httpPort,
			Handler: mux,
		},
		logger:          logger,
		startTime:       time.Now(),
		serviceRegistry: serviceRegistry,
		service:         service,
	}

	// Register routes
	mux.HandleFunc("/", server.handleRoot)
	mux.HandleFunc("/debug", server.handleDebug)
	// Reservation API endpoints, dispatched through the service registry
	mux.HandleFunc("/users/", server.handleServiceAPI)
	mux.HandleFunc("/reservations", server.handleServiceAPI)
	mux.HandleFunc("/reservations/", server.handleServiceAPI)
	mux.HandleFunc("/rooms/", server.handleServiceAPI)
	mux.HandleFunc("/mine", server.handleServiceAPI)
	mux.HandleFunc("/chain", server.handleServiceAPI)
	mux.HandleFunc("/stats", server.handleServiceAPI)
	mux.HandleFunc("/validate", server.handleServiceAPI)
	mux.HandleFunc("/network", server.handleServiceAPI)

	return server
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.logger.Info("Starting web server", "addr", ws.httpAddr)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error("web server error: ", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.logger.Info("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// handleRoot handles the root endpoint which shows node status
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		JSONError(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html")

	w.Write([]byte("<h1>University Room Reservation Node</h1>"))
	w.Write([]byte("<p>Status: online</p>"))
	w.Write([]byte("<p>See <a href=\"/debug\">/debug</a> for node information</p>"))
}

// handleDebug provides debugging information
func (ws *WebServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := ws.service.Stats()
	debugInfo := map[string]interface{}{
		"node_status":          "online",
		"uptime":               time.Since(ws.startTime).String(),
		"total_blocks":         stats.TotalBlocks,
		"total_transactions":   stats.TotalTransactions,
		"pending_transactions": stats.PendingTransactions,
		"latest_block_hash":    stats.LatestBlockHash,
		"chain_valid":          stats.IsValid,
		"mining_difficulty":    stats.Difficulty,
	}

	// Return as JSON
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(debugInfo); err != nil {
		JSONError(w, "Error encoding response: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleServiceAPI converts the HTTP request, runs it through the
// service registry, and writes the handler's response back.
func (ws *WebServer) handleServiceAPI(w http.ResponseWriter, r *http.Request) {
	requestID, err := generateRequestID()
	if err != nil {
		JSONError(w, "Internal Server Error", http.StatusInternalServerError)
		ws.logger.Error("Failed to generate request ID", "err", err)
		return
	}

	request, err := srvreg.ConvertHTTPRequest(r, requestID)
	if err != nil {
		JSONError(w, "Failed to convert request: "+err.Error(), http.StatusUnprocessableEntity)
		ws.logger.Error("Failed to convert HTTP request", "err", err)
		return
	}

	response, err := request.GenerateResponse(ws.serviceRegistry)
	if response == nil {
		JSONError(w, "Failed to generate response", http.StatusInternalServerError)
		ws.logger.Error("Failed to generate response", "err", err)
		return
	}
	if err != nil {
		ws.logger.Info("Request rejected",
			"method", request.Method,
			"path", request.Path,
			"status", response.StatusCode,
			"err", err)
	}

	apiResponse := ClientResponse{
		StatusCode: response.StatusCode,
		Headers:    response.Headers,
		Body:       parseBody(response.Body),
		Meta: ResponseMeta{
			RequestID:   requestID,
			ConfirmTime: time.Now(),
			ResponseInfo: ResponseInfo{
				StatusCode:  response.StatusCode,
				ContentType: response.Headers["Content-Type"],
				BodyLength:  len(response.Body),
			},
		},
		NodeID: "node0",
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.StatusCode)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(apiResponse); err != nil {
		ws.logger.Error("Failed to encode client response", "err", err)
	}
}

// parseBody attempts to parse a handler body as JSON, falling back to
// the raw string when it is not valid JSON.
func parseBody(body string) interface{} {
	if body == "" {
		return nil
	}

	var bodyMap map[string]interface{}
	if err := json.Unmarshal([]byte(body), &bodyMap); err == nil {
		return bodyMap
	}

	var bodyArray []interface{}
	if err := json.Unmarshal([]byte(body), &bodyArray); err == nil {
		return bodyArray
	}

	return body
}

func generateRequestID() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// JSONError sends a JSON formatted error response with the given status code and message
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	errorResponse := struct {
		Error string `json:"error"`
	}{
		Error: message,
	}
	jsonBytes, err := json.Marshal(errorResponse)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	w.Write(jsonBytes)
}
