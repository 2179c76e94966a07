package user

import (
	"net/http"

	"github.com/gorilla/mux"

	"nebulachat/internal/api"
)

type JSONHandler struct {
	userUseCase *AccountUseCase
}

func NewJSONHandler(userUseCase *AccountUseCase) *JSONHandler {
	return &JSONHandler{
		userUseCase: userUseCase,
	}
}

func (h *JSONHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userUseCase.GetUserByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, profile)
}

func (h *JSONHandler) FindUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userUseCase.GetUserByUsername(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteData(w, http.StatusOK, profile)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/users", h.FindUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
}
