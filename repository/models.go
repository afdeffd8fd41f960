package repository

import (
	"time"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserModel is the Bun model for users. UserID is the adapter facing id:
// the Espace Membre username once the adapter wrapper has enriched the user,
// or the string form of ID otherwise.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID        string     `bun:"user_id,notnull,unique"`
	Name          string     `bun:"name"`
	Email         string     `bun:"email,notnull,unique"`
	EmailVerified *time.Time `bun:"email_verified,nullzero"`
	Image         string     `bun:"image"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// VerificationTokenModel is the Bun model for magic-link tokens.
type VerificationTokenModel struct {
	bun.BaseModel `bun:"table:verification_tokens"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	Identifier string    `bun:"identifier,notnull,unique:identifier_token"`
	Token      string    `bun:"token,notnull,unique:identifier_token"`
	Expires    time.Time `bun:"expires,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toAdapterUser(m *UserModel) *espacemembre.AdapterUser {
	return &espacemembre.AdapterUser{
		ID:            m.UserID,
		Name:          m.Name,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
		Image:         m.Image,
	}
}

func fromAdapterUser(u espacemembre.AdapterUser) *UserModel {
	now := time.Now().UTC()
	model := &UserModel{
		UserID:        userIdentifier(u.ID),
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch id, err := uuid.Parse(model.UserID); {
	case err == nil:
		model.ID = id
	case model.UserID == "":
		model.ID = uuid.New()
		model.UserID = model.ID.String()
	default:
		model.ID = uuid.New()
	}
	return model
}

// userIdentifier normalizes uuid shaped ids so they match the primary key
// lookup go-repository-bun performs for them.
func userIdentifier(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

func toVerificationToken(m *VerificationTokenModel) *espacemembre.VerificationToken {
	return &espacemembre.VerificationToken{
		Identifier: m.Identifier,
		Token:      m.Token,
		Expires:    m.Expires,
	}
}
