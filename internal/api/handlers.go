package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/career-agent/backend/internal/auth"
	"github.com/career-agent/backend/internal/core"
	"github.com/career-agent/backend/internal/store"
)

// AuthHeader is the request header carrying the signed session token.
const AuthHeader = "x-auth-token"

type ctxKey string

const principalKey ctxKey = "principal"

// UserStore is the slice of the store the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

type Handler struct {
	users         UserStore
	conversations *core.ConversationService
	agent         *core.AgentService
	tokens        *auth.TokenIssuer
	logger        *zap.Logger
}

func NewHandler(users UserStore, cs *core.ConversationService, agent *core.AgentService, tokens *auth.TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		users:         users,
		conversations: cs,
		agent:         agent,
		tokens:        tokens,
		logger:        logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// AuthMiddleware verifies the x-auth-token header and stores the derived
// principal on the request context. It gates every conversation and agent
// route.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get(AuthHeader)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		principal, err := h.tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrTokenMalformed) {
				writeError(w, http.StatusUnauthorized, "Token is not valid (malformed)")
				return
			}
			writeError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) auth.Principal {
	principal, _ := r.Context().Value(principalKey).(auth.Principal)
	return principal
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, hashed)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.logger.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	token, err := h.tokens.IssueUserToken(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up user", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}

	token, err := h.tokens.IssueUserToken(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) GuestHandler(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.IssueGuestToken()
	if err != nil {
		h.logger.Error("failed to issue guest token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.conversations.List(r.Context(), principalFrom(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	messages, err := h.conversations.GetHistory(r.Context(), principalFrom(r), conversationID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type SendMessageRequest struct {
	Message        string          `json:"message"`
	ConversationID string          `json:"conversationId,omitempty"`
	History        []store.Message `json:"history,omitempty"`
}

type SendMessageResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.conversations.SendMessage(r.Context(), principalFrom(r), core.SendMessageRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		History:        req.History,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendMessageResponse{
		Reply:          resp.Reply,
		ConversationID: resp.ConversationID,
	})
}

type AnalyzeRequest struct {
	ResumeText         string `json:"resumeText"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	analysis, err := h.agent.Analyze(r.Context(), req.ResumeText, req.JobDescriptionText)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// writeServiceError maps typed core errors onto the HTTP surface. Anything
// unrecognized is treated as an internal failure.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *core.Error
	if !errors.As(err, &svcErr) {
		h.logger.Error("unexpected service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	switch svcErr.Code {
	case core.ErrorInvalidInput:
		writeError(w, http.StatusBadRequest, "Message content is required.")
	case core.ErrorInvalidID:
		writeError(w, http.StatusBadRequest, "Invalid conversation ID format.")
	case core.ErrorForbidden:
		writeError(w, http.StatusForbidden, "Guests do not have saved conversations.")
	case core.ErrorNotFound:
		writeError(w, http.StatusNotFound, "Conversation not found or does not belong to user.")
	case core.ErrorAIService:
		h.logger.Error("ai service failure", zap.String("reason", svcErr.Reason), zap.Error(svcErr))
		if svcErr.Reason == "ai_config_error" {
			writeError(w, http.StatusInternalServerError, "AI service configuration error. Please check API key and Google Cloud settings.")
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to process chat message due to a server error.")
		}
	default:
		h.logger.Error("storage failure", zap.String("reason", svcErr.Reason), zap.Error(svcErr))
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}
