package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/renderauth/renderauth/internal/auth/domain"
	"github.com/renderauth/renderauth/internal/auth/store"
	"github.com/renderauth/renderauth/pkg/cryptox"
	"github.com/renderauth/renderauth/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
)

// CredentialService checks email/password pairs against the user store.
type CredentialService struct {
	Store store.Store
}

// Verify resolves the email case-insensitively and checks the password
// against the stored argon2 hash. Unknown user, wrong password, and
// deactivated account all return ErrInvalidCredentials so the caller cannot
// tell them apart.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	if !user.Active {
		l.Info("login rejected for inactive user", slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}
