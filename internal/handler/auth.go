package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jirawatp/anon-message-api/internal/middleware"
	"github.com/jirawatp/anon-message-api/internal/usecase"
)

// AuthHandler serves registration, verification, and session endpoints.
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *requestValidator
	logger      *zerolog.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, logger *zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   newRequestValidator(),
		logger:      logger,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	_, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			writeMessage(w, http.StatusConflict, false, "username or email is already taken")
			return
		}

		h.logger.Error().Err(err).Msg("failed to register user")
		writeInternalError(w)
		return
	}

	writeMessage(w, http.StatusCreated, true, "user registered successfully, please verify your email")
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, false, "invalid credentials")
		case errors.Is(err, usecase.ErrUserNotVerified):
			writeMessage(w, http.StatusForbidden, false, "email not verified, please verify your email")
		default:
			h.logger.Error().Err(err).Msg("failed to sign in user")
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "signed in successfully",
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	err := h.authUsecase.VerifyCode(r.Context(), req.Username, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, false, "user not found")
		case errors.Is(err, usecase.ErrInvalidVerifyCode):
			writeMessage(w, http.StatusBadRequest, false, "incorrect verification code")
		case errors.Is(err, usecase.ErrVerifyCodeExpired):
			writeMessage(w, http.StatusBadRequest, false, "verification code has expired, please sign up again")
		default:
			h.logger.Error().Err(err).Msg("failed to verify code")
			writeInternalError(w)
		}
		return
	}

	writeMessage(w, http.StatusOK, true, "account verified successfully")
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg, ok := h.validator.check(req); !ok {
		writeMessage(w, http.StatusBadRequest, false, msg)
		return
	}

	tokens, err := h.authUsecase.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSession) {
			writeMessage(w, http.StatusUnauthorized, false, "invalid session")
			return
		}

		h.logger.Error().Err(err).Msg("failed to refresh tokens")
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "tokens refreshed successfully",
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, false, "not authenticated")
		return
	}

	if err := h.authUsecase.SignOut(r.Context(), identity.SessionID); err != nil {
		h.logger.Error().Err(err).Msg("failed to sign out")
		writeInternalError(w)
		return
	}

	writeMessage(w, http.StatusOK, true, "signed out successfully")
}

func (h *AuthHandler) CheckUsernameUnique(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeMessage(w, http.StatusBadRequest, false, "username query parameter is required")
		return
	}

	taken, err := h.authUsecase.IsUsernameTaken(r.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to check username")
		writeInternalError(w)
		return
	}

	if taken {
		writeMessage(w, http.StatusOK, false, "username is already taken")
		return
	}

	writeMessage(w, http.StatusOK, true, "username is available")
}
