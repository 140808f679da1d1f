package auth

import (
	"context"
	"errors"
	"fmt"

	"task_service/internal/apperr"
	"task_service/internal/models"
	"task_service/internal/storage"

	"github.com/gofrs/uuid"
)

type UserGetter interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// Authenticator resolves bearer credentials to users.
type Authenticator struct {
	tokens *TokenService
	users  UserGetter
}

func NewAuthenticator(tokens *TokenService, users UserGetter) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
	}
}

// Authenticate returns the user the access token belongs to. An invalid
// token and a token for a deleted user fail the same way.
func (a *Authenticator) Authenticate(ctx context.Context, credential string) (models.User, error) {
	const op = "auth.Authenticate"

	claims, err := a.tokens.Verify(credential, KindAccess)
	if err != nil {
		return models.User{}, apperr.Unauthenticated("invalid token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, apperr.Unauthenticated("invalid token")
	}

	user, err := a.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, apperr.Unauthenticated("invalid token")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
