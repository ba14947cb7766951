package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jirawatp/anon-message-api/internal/suggest"
)

// SuggestHandler serves AI-generated message prompts for the public
// submission page.
type SuggestHandler struct {
	suggester suggest.Suggester
	logger    *zerolog.Logger
}

func NewSuggestHandler(suggester suggest.Suggester, logger *zerolog.Logger) *SuggestHandler {
	return &SuggestHandler{
		suggester: suggester,
		logger:    logger,
	}
}

func (h *SuggestHandler) SuggestMessages(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.suggester.SuggestMessages(r.Context())
	if err != nil {
		if errors.Is(err, suggest.ErrUpstream) || errors.Is(err, suggest.ErrNoSuggestions) {
			h.logger.Warn().Err(err).Msg("suggestion provider unavailable")
			writeMessage(w, http.StatusBadGateway, false, "failed to fetch suggestions")
			return
		}

		h.logger.Error().Err(err).Msg("failed to fetch suggestions")
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": suggestions,
	})
}
