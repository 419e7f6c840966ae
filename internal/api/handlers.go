package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/core"
	"finassist.com/finance-chatbot/internal/store"
)

type APIHandler struct {
	chatService      *core.ChatService
	faqService       *core.FAQService
	analyticsService *core.AnalyticsService
	jwtSecret        string
	logger           *zap.Logger
}

func NewAPIHandler(cs *core.ChatService, fs *core.FAQService, as *core.AnalyticsService, jwtSecret string, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		chatService:      cs,
		faqService:       fs,
		analyticsService: as,
		jwtSecret:        jwtSecret,
		logger:           logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the service error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var upstream *core.UpstreamError
	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCompletionUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		// StorageError, PersistenceError and anything unexpected.
		return http.StatusInternalServerError
	}
}

// logFailure logs server-side failures at error level and client mistakes at debug.
func (h *APIHandler) logFailure(r *http.Request, status int, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, fields...)
		return
	}
	h.logger.Debug(msg, fields...)
}

func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	status := statusFor(err)
	h.logFailure(r, status, msg, err, fields...)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type CreateConversationRequest struct {
	Title string `json:"title,omitempty" validate:"max=200"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req CreateConversationRequest
	if err := decodeAndValidate(r, &req, true); err != nil {
		h.writeError(w, r, "invalid create conversation request", err)
		return
	}

	conv, err := h.chatService.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		h.writeError(w, r, "failed to create conversation", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	convs, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to list conversations", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

type ConversationDetailsResponse struct {
	*store.Conversation
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	conv, messages, err := h.chatService.GetConversation(r.Context(), conversationID, userID)
	if err != nil {
		h.writeError(w, r, "failed to get conversation", err, zap.String("conversation_id", conversationID))
		return
	}
	writeJSON(w, http.StatusOK, ConversationDetailsResponse{Conversation: conv, Messages: messages})
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	if err := h.chatService.DeleteConversation(r.Context(), conversationID, userID); err != nil {
		h.writeError(w, r, "failed to delete conversation", err, zap.String("conversation_id", conversationID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	var req PostMessageRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		h.writeError(w, r, "invalid post message request", err)
		return
	}

	result, err := h.chatService.PostMessage(r.Context(), conversationID, userID, req.Content)
	if err != nil {
		h.writeError(w, r, "failed to post message", err, zap.String("conversation_id", conversationID))
		return
	}
	writeJSON(w, http.StatusOK, result.Message)
}

func (h *APIHandler) ListFAQsHandler(w http.ResponseWriter, r *http.Request) {
	filter := core.FAQFilter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	faqs, err := h.faqService.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "failed to list faqs", err)
		return
	}
	writeJSON(w, http.StatusOK, faqs)
}

func (h *APIHandler) FAQCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.faqService.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, "failed to list faq categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *APIHandler) MarkFAQHelpfulHandler(w http.ResponseWriter, r *http.Request) {
	faqID := chi.URLParam(r, "faqID")

	count, err := h.faqService.MarkHelpful(r.Context(), faqID)
	if err != nil {
		h.writeError(w, r, "failed to mark faq helpful", err, zap.String("faq_id", faqID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": faqID, "helpful_count": count})
}

func (h *APIHandler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	stats, err := h.analyticsService.ForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to load analytics", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) AdminAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	stats, err := h.analyticsService.Global(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "failed to load admin analytics", err, zap.String("user_id", userID))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
