package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jirawatp/anon-message-api/internal/middleware"
	"github.com/jirawatp/anon-message-api/internal/model"
	"github.com/jirawatp/anon-message-api/internal/usecase"
)

// MessageHandler serves the anonymous submission endpoint and the
// authenticated inbox endpoints.
type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
	validator      *requestValidator
	logger         *zerolog.Logger
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, logger *zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messageUsecase: messageUsecase,
		validator:      newRequestValidator(),
		logger:         logger,
	}
}

// SendMessage admits an anonymous message into the target user's inbox.
// Deliberately unauthenticated: senders are anonymous by design.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	_, err := h.messageUsecase.Submit(r.Context(), req.Username, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, false, "user not found")
		case errors.Is(err, usecase.ErrNotAcceptingMessages):
			writeMessage(w, http.StatusForbidden, false, "user is not accepting messages")
		default:
			h.logger.Error().Err(err).Msg("failed to send message")
			writeInternalError(w)
		}
		return
	}

	writeMessage(w, http.StatusCreated, true, "message sent successfully")
}

func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "not authenticated")
		return
	}

	messages, err := h.messageUsecase.List(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, false, "user not found")
			return
		}

		h.logger.Error().Err(err).Msg("failed to fetch messages")
		writeInternalError(w)
		return
	}

	if messages == nil {
		messages = []model.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "not authenticated")
		return
	}

	messageID := chi.URLParam(r, "messageID")

	err := h.messageUsecase.Delete(r.Context(), identity.UserID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMessageNotFound):
			writeMessage(w, http.StatusNotFound, false, "message not found")
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, false, "user not found")
		default:
			h.logger.Error().Err(err).Msg("failed to delete message")
			writeInternalError(w)
		}
		return
	}

	writeMessage(w, http.StatusOK, true, "message deleted successfully")
}

func (h *MessageHandler) GetAcceptance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "not authenticated")
		return
	}

	accepting, err := h.messageUsecase.GetAcceptance(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, false, "user not found")
			return
		}

		h.logger.Error().Err(err).Msg("failed to fetch message settings")
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"isAcceptingMessages": accepting,
	})
}

func (h *MessageHandler) UpdateAcceptance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "not authenticated")
		return
	}

	var req AcceptMessagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	if err := h.messageUsecase.SetAcceptance(r.Context(), identity.UserID, *req.AcceptMessages); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, false, "user not found")
			return
		}

		h.logger.Error().Err(err).Msg("failed to update message settings")
		writeInternalError(w)
		return
	}

	writeMessage(w, http.StatusOK, true, "message settings updated successfully")
}
