package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jirawatp/anon-message-api/internal/middleware"
)

// NewRouter assembles the HTTP surface. requireAuth gates the inbox and
// sign-out endpoints; submission and suggestion stay open to anonymous callers.
func NewRouter(
	logger *zerolog.Logger,
	authHandler *AuthHandler,
	messageHandler *MessageHandler,
	suggestHandler *SuggestHandler,
	requireAuth func(http.Handler) http.Handler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, true, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", authHandler.SignUp)
			r.Post("/sign-in", authHandler.SignIn)
			r.Post("/verify-code", authHandler.VerifyCode)
			r.Post("/refresh", authHandler.Refresh)
			r.With(requireAuth).Post("/sign-out", authHandler.SignOut)
		})

		r.Get("/check-username-unique", authHandler.CheckUsernameUnique)
		r.Post("/send-message", messageHandler.SendMessage)
		r.Post("/suggest-messages", suggestHandler.SuggestMessages)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/get-messages", messageHandler.GetMessages)
			r.Delete("/delete-message/{messageID}", messageHandler.DeleteMessage)
			r.Get("/accept-messages", messageHandler.GetAcceptance)
			r.Post("/accept-messages", messageHandler.UpdateAcceptance)
		})
	})

	return r
}
