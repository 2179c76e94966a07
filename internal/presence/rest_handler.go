package presence

import (
	"net/http"

	"github.com/gorilla/mux"

	"nebulachat/internal/api"
	"nebulachat/internal/chat"
)

type JSONHandler struct {
	presence *Service
	chat     *chat.Service
}

func NewJSONHandler(presence *Service, chat *chat.Service) *JSONHandler {
	return &JSONHandler{presence: presence, chat: chat}
}

type setTypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

type typingResponse struct {
	Usernames []string `json:"usernames"`
}

func (h *JSONHandler) GetTyping(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	roomID := mux.Vars(r)["id"]
	if err := h.chat.RequireMember(r.Context(), roomID, caller.UserID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	usernames, err := h.presence.GetTypingUsers(r.Context(), roomID, caller.UserID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, typingResponse{Usernames: usernames})
}

func (h *JSONHandler) SetTyping(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	var req setTypingRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}
	roomID := mux.Vars(r)["id"]
	if err := h.chat.RequireMember(r.Context(), roomID, caller.UserID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	if err := h.presence.SetTyping(r.Context(), caller, roomID, req.IsTyping); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/rooms/{id}/typing", h.GetTyping).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/typing", h.SetTyping).Methods(http.MethodPut)
}
