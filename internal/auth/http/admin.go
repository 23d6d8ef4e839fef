package http

import (
	"net/http"

	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/pkg/authsdk"
	"github.com/renderauth/renderauth/pkg/httpx"
	"github.com/renderauth/renderauth/pkg/slogx"
)

// AdminUsersHandler lists all users. Sits behind the authentication
// middleware plus the admin role guard.
type AdminUsersHandler struct {
	Store store.Store
}

func (h *AdminUsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.Store.Users().ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	out := make([]authsdk.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, authsdk.UserSummary{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Roles:       u.Roles,
			Active:      u.Active,
			CreatedAt:   u.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserListResponse{Users: out})
}
