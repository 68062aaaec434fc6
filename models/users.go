package models

import (
	"context"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	FullName      string     `bun:"full_name" json:"full_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Active        bool       `bun:"is_active,notnull" json:"is_active"`
	Superuser     bool       `bun:"is_superuser,notnull" json:"is_superuser"`
	Verified      bool       `bun:"is_verified,notnull" json:"is_verified"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt     time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

// BeforeAppendModel stamps created_at and updated_at
func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if u == nil {
		return nil
	}
	stampTimestamps(query, &u.CreatedAt, &u.UpdatedAt)
	return nil
}

// Subject returns the id as carried in the token "sub" claim
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}

func stampTimestamps(query bun.Query, createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if createdAt.IsZero() {
			*createdAt = now
		}
		*updatedAt = now
	case *bun.UpdateQuery:
		*updatedAt = now
	}
}
