package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/gramtop961/backend/internal/auth"
	"github.com/gramtop961/backend/internal/db"
	"github.com/gramtop961/backend/internal/models"
)

// UserStore is the slice of the store gateway the auth handlers need.
// db.Users satisfies it; tests plug in a fake.
type UserStore interface {
	FindByEmail(ctx context.Context, email string, limit int64) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) (string, error)
}

// StoreDiag is the slice of the store the diagnostic endpoint needs.
// db.DB satisfies it, including as a nil pointer, whose methods report
// db.ErrUnavailable.
type StoreDiag interface {
	Ping(ctx context.Context) error
	CollectionNames(ctx context.Context) ([]string, error)
}

type Handler struct {
	Auth   *AuthHandler
	System *SystemHandler
}

func NewHandler(database *db.DB, users UserStore, issuer *auth.Issuer, log *zap.Logger) *Handler {
	return &Handler{
		Auth:   &AuthHandler{Users: users, Issuer: issuer, Log: log},
		System: &SystemHandler{Store: database, Log: log},
	}
}
