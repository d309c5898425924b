package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mobile-next/idbtap/utils"
	"github.com/sirupsen/logrus"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Internal error: Internal JSON-RPC error
	ErrCodeInternalError = -32603
)

const (
	errTitleParse         = "Parse error"
	errTitleInvalidReq    = "Invalid Request"
	errTitleMethodNotFnd  = "Method not found"
	errTitleMethodNotSupp = "Method not supported"
	errTitleServer        = "Server error"

	errMsgParse          = "expecting jsonrpc payload"
	errMsgInvalidJSONRPC = "'jsonrpc' must be '2.0'"
	errMsgIDRequired     = "'id' field is required"
	errMsgMethodRequired = "'method' is required"
	errMsgShutdownWS     = "server.shutdown not supported over WebSocket, use HTTP /rpc endpoint"
)

// Server timeouts
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 120 * time.Second

	// LongWriteTimeout applies to calibrate and stream, which run for
	// seconds by design.
	LongWriteTimeout = 10 * time.Minute

	shutdownGrace = 5 * time.Second
)

// MethodShutdown stops a running server. Only accepted on /rpc.
const MethodShutdown = "server.shutdown"

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type rpcError struct {
	code    int
	message string
	data    string
}

func validateJSONRPCRequest(req JSONRPCRequest) *rpcError {
	if req.JSONRPC != "2.0" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC}
	}
	if req.ID == nil {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired}
	}
	if req.Method == "" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired}
	}
	return nil
}

// Options configures the HTTP server.
type Options struct {
	Addr string
	CORS bool
	// Token, when set, must be presented as a bearer token on every request.
	Token string
}

// Server serves JSON-RPC over HTTP (/rpc) and WebSocket (/ws).
type Server struct {
	opts     Options
	shutdown chan struct{}
	once     sync.Once
}

func New(opts Options) *Server {
	return &Server{
		opts:     opts,
		shutdown: make(chan struct{}),
	}
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routes wrapped in auth and, when enabled, CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.Handle("/ws", NewWebSocketHandler(s.opts.CORS))

	var handler http.Handler = mux
	if s.opts.Token != "" {
		handler = authMiddleware(s.opts.Token, handler)
	}
	if s.opts.CORS {
		handler = corsMiddleware(handler)
	}
	return handler
}

// NormalizeAddr turns a bare port into ":port".
func NormalizeAddr(addr string) (string, error) {
	if strings.Contains(addr, ":") {
		return addr, nil
	}
	port, err := strconv.Atoi(addr)
	if err != nil {
		return "", fmt.Errorf("invalid port: %v", err)
	}
	return fmt.Sprintf(":%d", port), nil
}

// ListenAndServe runs until ctx is cancelled or a server.shutdown request
// arrives, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr, err := NormalizeAddr(s.opts.Addr)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		utils.Info("Starting server on http://%s...", listener.Addr())
		errs <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		utils.Info("Context cancelled, stopping server")
	case <-s.shutdown:
		utils.Info("Shutdown requested, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartServer listens on addr until ctx ends or server.shutdown is called.
func StartServer(ctx context.Context, addr string, enableCORS bool, token string) error {
	return New(Options{Addr: addr, CORS: enableCORS, Token: token}).ListenAndServe(ctx)
}

func (s *Server) requestShutdown() {
	s.once.Do(func() { close(s.shutdown) })
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, errTitleParse, errMsgParse)
		return
	}

	if rpcErr := validateJSONRPCRequest(req); rpcErr != nil {
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	utils.Logger().WithFields(logrus.Fields{
		"id":     req.ID,
		"method": req.Method,
	}).Infof("Request params: %s", string(req.Params))

	if req.Method == MethodShutdown {
		sendJSONRPCResponse(w, req.ID, okResponse)
		s.requestShutdown()
		return
	}

	handler, exists := GetMethodRegistry()[req.Method]
	if !exists {
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, errTitleMethodNotFnd, fmt.Sprintf("Method '%s' not found", req.Method))
		return
	}

	if isLongRunning(req.Method) {
		_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(LongWriteTimeout))
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		utils.Logger().WithField("method", req.Method).Warnf("Error executing method: %v", err)
		sendJSONRPCError(w, req.ID, ErrCodeServerError, errTitleServer, err.Error())
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}
