package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/igocard/backend/internal/models"
	"github.com/igocard/backend/internal/types"
)

// IProfileService defines the interface for profile record operations
type IProfileService interface {
	Validate(ctx context.Context, draft *types.ProfileDraft, ownerID uuid.UUID) (types.FieldErrors, error)
	Create(ctx context.Context, ownerID uuid.UUID, draft *types.ProfileDraft, icon *types.IconUpload) (*models.Profile, error)
	Update(ctx context.Context, ownerID uuid.UUID, draft *types.ProfileDraft, icon *types.IconUpload) (*models.Profile, error)
	LookupByNormalizedName(ctx context.Context, name string) (*models.Profile, error)
	LookupByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Profile, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(name, email, password string) (string, error)
	Login(email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IconStore defines the interface for avatar blob storage
type IconStore interface {
	Upload(ctx context.Context, ownerID uuid.UUID, icon *types.IconUpload) (string, error)
}
