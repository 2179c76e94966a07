package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulachat/internal/storage"
)

func TestUserLookup(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, store.CreateUser(context.Background(), &storage.User{
		ID: "u1", Username: "alice", PasswordHash: "secret-hash", CreatedAt: time.Now(),
	}))

	r := mux.NewRouter()
	SetupJSONRoutes(r, NewJSONHandler(NewUserAccountUseCase(store)))

	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"by id", "/users/u1", http.StatusOK, `"username":"alice"`},
		{"by username", "/users?username=alice", http.StatusOK, `"id":"u1"`},
		{"unknown id", "/users/u2", http.StatusNotFound, `"error"`},
		{"missing username", "/users", http.StatusBadRequest, `"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.NotContains(t, rec.Body.String(), "secret-hash")
		})
	}
}
