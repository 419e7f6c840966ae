package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/core"
)

// Handlers for the serverless-style endpoints under /functions/v1. They keep
// the {success, ...} envelope the web client already consumes.

type functionError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type chatFunctionResponse struct {
	Success bool        `json:"success"`
	Intent  core.Intent `json:"intent"`
	Message string      `json:"message"`
}

type seedFunctionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

func (h *APIHandler) writeFunctionError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	h.logFailure(r, status, msg, err)
	writeJSON(w, status, functionError{Success: false, Error: err.Error()})
}

func (h *APIHandler) ChatFunctionHandler(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		h.writeFunctionError(w, r, "invalid chat request", err)
		return
	}

	result, err := h.chatService.Respond(r.Context(), UserIDFromContext(r.Context()), req)
	if err != nil {
		h.writeFunctionError(w, r, "error in chat function", err)
		return
	}
	writeJSON(w, http.StatusOK, chatFunctionResponse{
		Success: true,
		Intent:  result.Intent,
		Message: result.Reply,
	})
}

func (h *APIHandler) SeedFunctionHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.faqService.Seed(r.Context())
	if err != nil {
		h.writeFunctionError(w, r, "error in seed-faqs function", err)
		return
	}

	if result.Skipped() {
		writeJSON(w, http.StatusOK, seedFunctionResponse{
			Success: true,
			Message: fmt.Sprintf("FAQs already exist (%d entries). Skipping seed.", result.Existing),
		})
		return
	}
	h.logger.Info("seeded knowledge base", zap.Int("count", result.Inserted))
	writeJSON(w, http.StatusOK, seedFunctionResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully seeded %d real finance FAQs", result.Inserted),
		Count:   result.Inserted,
	})
}

// PreflightHandler answers every OPTIONS request on the function routes,
// including bare ones the CORS middleware does not treat as preflights.
func PreflightHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", allowedHeadersValue)
	w.WriteHeader(http.StatusOK)
}
