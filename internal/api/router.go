package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/observability"
)

var allowedHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type", "X-Request-ID"}

var allowedHeadersValue = strings.Join(allowedHeaders, ", ")

func NewRouter(apiHandler *APIHandler, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(RequestMetrics(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: allowedHeaders,
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/functions/v1", func(r chi.Router) {
		r.Options("/chat", PreflightHandler)
		r.Options("/seed-faqs", PreflightHandler)

		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)
			r.Post("/chat", apiHandler.ChatFunctionHandler)
			r.Post("/seed-faqs", apiHandler.SeedFunctionHandler)
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/faqs", apiHandler.ListFAQsHandler)
		r.Get("/faqs/categories", apiHandler.FAQCategoriesHandler)
		r.Post("/faqs/{faqID}/helpful", apiHandler.MarkFAQHelpfulHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Post("/conversations", apiHandler.CreateConversationHandler)
			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Get("/conversations/{conversationID}", apiHandler.GetConversationHandler)
			r.Delete("/conversations/{conversationID}", apiHandler.DeleteConversationHandler)
			r.Post("/conversations/{conversationID}/messages", apiHandler.PostMessageHandler)

			r.Get("/analytics", apiHandler.AnalyticsHandler)
			r.Get("/admin/analytics", apiHandler.AdminAnalyticsHandler)
		})
	})

	return r
}
