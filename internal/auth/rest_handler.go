package auth

import (
	"net/http"

	"github.com/gorilla/mux"

	"nebulachat/internal/api"
)

type JSONHandler struct {
	authUseCase *UseCase
}

func NewJSONAuthHandler(authUseCase *UseCase) *JSONHandler {
	return &JSONHandler{
		authUseCase: authUseCase,
	}
}

func (h *JSONHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	account, err := h.authUseCase.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteData(w, http.StatusCreated, toAccountResponse(account))
}

func (h *JSONHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.WriteError(w, r, err)
		return
	}

	account, err := h.authUseCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteData(w, http.StatusOK, toAccountResponse(account))
}

func (h *JSONHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := api.CurrentSession(w, r)
	if !ok {
		return
	}

	user, err := h.authUseCase.Me(r.Context(), session)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	api.WriteData(w, http.StatusOK, toUserResponse(user))
}

// SetupJSONAuthRoutes Helper function to set up routes
func SetupJSONAuthRoutes(public, private *mux.Router, h *JSONHandler) {
	public.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	private.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
}
