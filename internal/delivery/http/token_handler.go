package http

import (
	"encoding/json"
	"net/http"

	"stock-screener-backend/internal/domain"
)

type TokenHandler struct {
	subs domain.SubscriberRepository
}

func NewTokenHandler(subs domain.SubscriberRepository) *TokenHandler {
	return &TokenHandler{subs: subs}
}

type RegisterTokenRequest struct {
	Token    string
	Platform string
}

type TokenResponse struct {
	Success bool
	Message string
	Count   int
}

func (h *TokenHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	if req.Platform == "" {
		req.Platform = "android"
	}

	if err := h.subs.Register(r.Context(), req.Token, req.Platform); err != nil {
		http.Error(w, "Failed to register token", http.StatusInternalServerError)
		return
	}

	count, _ := h.subs.Count(r.Context())
	response := TokenResponse{
		Success: true,
		Message: "Token registered successfully",
		Count:   count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *TokenHandler) HandleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	if err := h.subs.Unregister(r.Context(), req.Token); err != nil {
		http.Error(w, "Failed to unregister token", http.StatusInternalServerError)
		return
	}

	count, _ := h.subs.Count(r.Context())
	response := TokenResponse{
		Success: true,
		Message: "Token unregistered successfully",
		Count:   count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
