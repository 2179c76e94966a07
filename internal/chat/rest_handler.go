package chat

import (
	"net/http"

	"github.com/gorilla/mux"

	"nebulachat/internal/api"
)

type JSONHandler struct {
	chat *Service
}

func NewJSONHandler(chat *Service) *JSONHandler {
	return &JSONHandler{chat: chat}
}

func (h *JSONHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	roomID := mux.Vars(r)["id"]

	if err := h.chat.RequireMember(r.Context(), roomID, caller.UserID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	messages, err := h.chat.FetchHistory(r.Context(), roomID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, messages)
}

func (h *JSONHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	var req SendInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	message, err := h.chat.Send(r.Context(), caller, mux.Vars(r)["id"], req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusCreated, message)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/rooms/{id}/messages", h.History).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/messages", h.Send).Methods(http.MethodPost)
}
