package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/bdchat/internal/config"
	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/core/ports"
	"github.com/kirillkom/bdchat/internal/observability/metrics"
)

const maxChatBodyBytes = 1 << 20

var errChatServiceMissing = errors.New("chat service is not wired")

type Router struct {
	cfg      config.Config
	chatSvc  ports.ChatService
	topics   ports.TopicCatalog
	metrics  *metrics.HTTPServerMetrics
	contract *contract
}

func NewRouter(
	cfg config.Config,
	chatSvc ports.ChatService,
	topics ports.TopicCatalog,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	apiContract, err := loadContract()
	if err != nil {
		slog.Error("openapi_contract_load_failed", "error", err)
	}
	return &Router{
		cfg:      cfg,
		chatSvc:  chatSvc,
		topics:   topics,
		metrics:  httpMetrics,
		contract: apiContract,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.root)
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/topics", rt.listTopics)
	mux.HandleFunc("/openapi.json", rt.openAPI)
	mux.Handle("/chat", rateLimitMiddleware(
		backpressureMiddleware(http.HandlerFunc(rt.chat), rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait),
		rt.cfg.APIRateLimitRPS,
		rt.cfg.APIRateLimitBurst,
	))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = recoverMiddleware(mux)
	handler = corsMiddleware(handler, rt.cfg.CORSAllowedOrigins)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	return handler
}

func (rt *Router) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "chat backend is running")
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	inference := "unavailable"
	if rt.chatSvc != nil && rt.chatSvc.Ready() {
		inference = "ready"
	}
	topicCount := 0
	if rt.topics != nil {
		topicCount = rt.topics.Len()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"topics":    topicCount,
		"inference": inference,
	})
}

func (rt *Router) listTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	names := []string{}
	if rt.topics != nil {
		names = append(names, rt.topics.ListTopics()...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": names})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.contract == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "api contract unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.contract.rendered)
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	requestID := requestIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBodyBytes))
	if err != nil {
		rt.rejectChat(w, requestID, "read body", err)
		return
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		rt.rejectChat(w, requestID, "decode body", err)
		return
	}
	if err := rt.contract.validateChatRequest(raw); err != nil {
		rt.rejectChat(w, requestID, "validate body", err)
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		rt.rejectChat(w, requestID, "decode message", err)
		return
	}

	if rt.chatSvc == nil {
		rt.writeChatError(w, requestID, domain.WrapError(domain.ErrNotInitialized, "chat", errChatServiceMissing))
		return
	}

	start := time.Now()
	reply, err := rt.chatSvc.Chat(r.Context(), req.Message)
	if err != nil {
		rt.writeChatError(w, requestID, err)
		return
	}

	slog.Info("chat_completed",
		"request_id", requestID,
		"exchange_id", reply.ExchangeID,
		"topics", reply.Topics,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	if rt.metrics != nil {
		rt.metrics.RecordChatOutcome("answered", reply.Topics)
	}
	writeJSON(w, http.StatusOK, domain.SuccessResult(reply.HTML))
}

// rejectChat answers requests whose body never reached the chat service.
func (rt *Router) rejectChat(w http.ResponseWriter, requestID, stage string, err error) {
	slog.Warn("chat_request_rejected",
		"request_id", requestID,
		"stage", stage,
		"error", err,
	)
	if rt.metrics != nil {
		rt.metrics.RecordChatOutcome("bad_request", nil)
	}
	writeJSON(w, http.StatusBadRequest, domain.ErrorResult(msgProcessing))
}

func (rt *Router) writeChatError(w http.ResponseWriter, requestID string, err error) {
	status := mapErrorToHTTPStatus(err)
	kind := domain.KindOf(err)
	logAttrs := []any{
		"request_id", requestID,
		"kind", kind,
		"error", err,
	}
	switch {
	case status >= 500 && kind == "upstream":
		slog.Error("upstream_call_failed", logAttrs...)
	case status >= 500:
		slog.Error("chat_failed", logAttrs...)
	default:
		slog.Warn("chat_failed", logAttrs...)
	}
	if rt.metrics != nil {
		rt.metrics.RecordChatOutcome(kind, nil)
	}
	writeJSON(w, status, domain.ErrorResult(mapErrorToUserMessage(err)))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
