package room

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"nebulachat/infrastructure"
	"nebulachat/internal/api"
	"nebulachat/internal/sessions"
)

type JSONHandler struct {
	rooms *Service
}

func NewJSONHandler(rooms *Service) *JSONHandler {
	return &JSONHandler{rooms: rooms}
}

// requireMember hides rooms the caller is not part of behind a 404.
func (h *JSONHandler) requireMember(r *http.Request, caller *sessions.Session, roomID string) error {
	ok, err := h.rooms.IsParticipant(r.Context(), roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, infrastructure.ErrNotFound)
	}
	return nil
}

func (h *JSONHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	rooms, err := h.rooms.ListRoomsForUser(r.Context(), caller)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, rooms)
}

func (h *JSONHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	var req CreateRoomInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	created, err := h.rooms.CreateRoom(r.Context(), caller, req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusCreated, created)
}

func (h *JSONHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	var req JoinRoomInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	roomID := mux.Vars(r)["id"]
	if err := h.rooms.JoinRoom(r.Context(), caller, roomID, req.AccessSecret); err != nil {
		api.WriteError(w, r, err)
		return
	}

	details, err := h.rooms.GetRoomDetails(r.Context(), roomID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, details)
}

func (h *JSONHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	roomID := mux.Vars(r)["id"]
	if err := h.requireMember(r, caller, roomID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	details, err := h.rooms.GetRoomDetails(r.Context(), roomID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, details)
}

func (h *JSONHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	var req UpdateRoomInput
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	details, err := h.rooms.UpdateRoomSettings(r.Context(), caller, mux.Vars(r)["id"], req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, details)
}

func (h *JSONHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	if err := h.rooms.DeleteRoom(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	roomID := mux.Vars(r)["id"]
	if err := h.requireMember(r, caller, roomID); err != nil {
		api.WriteError(w, r, err)
		return
	}

	participants, err := h.rooms.ListParticipants(r.Context(), roomID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, participants)
}

func (h *JSONHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	caller, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.rooms.RemoveParticipant(r.Context(), caller, vars["id"], vars["userId"]); err != nil {
		api.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupJSONRoutes registers the room routes on an authenticated router.
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/rooms", h.ListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms", h.CreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}", h.GetRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", h.UpdateRoom).Methods(http.MethodPut)
	r.HandleFunc("/rooms/{id}", h.DeleteRoom).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{id}/join", h.JoinRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/participants", h.ListParticipants).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}/participants/{userId}", h.RemoveParticipant).Methods(http.MethodDelete)
}
