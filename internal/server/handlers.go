package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/model"
	"github.com/lavka-group/shop-assistant/internal/service"
	"github.com/lavka-group/shop-assistant/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type answerRequest struct {
	Text string `json:"text"`
}

type answerResponse struct {
	Answer model.Answer `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.AnswerTimeout)
	defer cancel()

	answer := s.answerer.Answer(ctx, model.Question{Text: req.Text})
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	var req model.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID <= 0 {
		writeError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	user, err := s.users.RegisterUser(r.Context(), req)
	if err != nil {
		if eris.Is(err, store.ErrUserExists) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		zap.L().Error("user registration failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func telegramIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	user, err := s.users.GetUser(r.Context(), telegramID)
	if err != nil {
		if eris.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("user lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	user, err := s.users.SetUserActive(r.Context(), telegramID, *req.IsActive)
	if err != nil {
		if eris.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("user activity flag update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	var req model.FormCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	form, err := s.users.SubmitForm(r.Context(), telegramID, req)
	if err != nil {
		if eris.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("form submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	writeJSON(w, http.StatusCreated, form)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	telegramID, err := telegramIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	form, err := s.users.GetLastForm(r.Context(), telegramID)
	if err != nil {
		if eris.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		zap.L().Error("form lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if form == nil {
		writeError(w, http.StatusNotFound, "no form submitted")
		return
	}

	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "user service is not configured")
		return
	}

	stats, err := s.users.Stats(r.Context())
	if err != nil {
		zap.L().Error("stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
