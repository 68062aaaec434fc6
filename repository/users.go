package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
	"github.com/uptrace/bun"
)

// Users is the accounts repository
type Users interface {
	Repository[*models.User]

	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*models.User, error)
	TrackSuccessfulLogin(ctx context.Context, id int64, at time.Time) error
	SetActive(ctx context.Context, id int64, active bool) (*models.User, error)
}

type users struct {
	Repository[*models.User]
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun backed Users repository
func NewUsersRepository(db *bun.DB) Users {
	repo := NewRepository[*models.User](db, ModelHandlers[*models.User]{
		NewRecord: func() *models.User { return &models.User{} },
		GetID: func(u *models.User) int64 {
			if u == nil {
				return 0
			}
			return u.ID
		},
		SetID: func(u *models.User, id int64) {
			if u != nil {
				u.ID = id
			}
		},
		UpdatedAtColumn: "updated_at",
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (u *users) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return u.GetByIdentifierTx(ctx, u.db, identifier)
}

// GetByIdentifierTx matches identifier against email or username
func (u *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*models.User, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, NewRecordNotFound()
	}

	record := &models.User{}
	err := tx.NewSelect().
		Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", strings.ToLower(trimmed)).
				WhereOr("?TableAlias.username = ?", trimmed)
		}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, NewRecordNotFound().WithMetadata(map[string]any{
				"identifier": identifier,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user by identifier")
	}

	return record, nil
}

func (u *users) TrackSuccessfulLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := u.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("last_login_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track login")
	}
	return nil
}

func (u *users) SetActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	record := &models.User{ID: id, Active: active}
	return u.Update(ctx, record, "is_active")
}
