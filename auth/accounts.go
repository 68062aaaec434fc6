package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
	"github.com/uptrace/bun"
)

const registrationTimeout = 10 * time.Second

type RegisterUserMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone_number"`
	Bio      string `json:"bio"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// ProfileUpdate holds optional profile changes. Nil fields are untouched.
// Passwords change through ChangePassword only.
type ProfileUpdate struct {
	Email    *string
	Username *string
	FullName *string
	Phone    *string
	Bio      *string
}

func (p ProfileUpdate) Empty() bool {
	return p.Email == nil && p.Username == nil && p.FullName == nil && p.Phone == nil && p.Bio == nil
}

// Accounts is the account service backed by the repository manager
type Accounts struct {
	repo         repository.Manager
	hasher       PasswordAuthenticator
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

var _ AccountFinder = (*Accounts)(nil)

func NewAccounts(repo repository.Manager, hasher PasswordAuthenticator) *Accounts {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Accounts{
		repo:   repo,
		hasher: hasher,
		logger: defLogger(),
		now:    time.Now,
	}
}

func (a *Accounts) WithLogger(logger Logger) *Accounts {
	a.logger = normalizeLogger(logger)
	return a
}

func (a *Accounts) WithActivitySink(sink ActivitySink) *Accounts {
	a.activitySink = sink
	return a
}

// Register creates an active, non superuser account. Email is checked
// before username, both inside the insert transaction.
func (a *Accounts) Register(ctx context.Context, msg RegisterUserMessage) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
	}

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	username := strings.TrimSpace(msg.Username)

	phone, err := NormalizePhone(msg.Phone)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, registrationTimeout)
	defer cancel()

	var user *models.User
	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := a.repo.Users()

		taken, err := users.ExistsByFieldTx(ctx, tx, "email", email)
		if err != nil {
			return err
		}
		if taken {
			return NewDuplicateEmail()
		}

		taken, err = users.ExistsByFieldTx(ctx, tx, "username", username)
		if err != nil {
			return err
		}
		if taken {
			return NewDuplicateUsername()
		}

		hash, err := a.hasher.HashPassword(msg.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		user, err = users.CreateTx(ctx, tx, &models.User{
			Email:        email,
			Username:     username,
			FullName:     strings.TrimSpace(msg.FullName),
			Phone:        phone,
			Bio:          strings.TrimSpace(msg.Bio),
			PasswordHash: hash,
			Active:       true,
			Superuser:    false,
		})
		if err != nil {
			if conflict := accountConflict(err); conflict != nil {
				return conflict
			}
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	a.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	recordActivity(ctx, a.activitySink, a.logger, ActivityEvent{
		EventType: ActivityEventRegistered,
		UserID:    user.ID,
	})

	return user, nil
}

// GetByID returns ErrIdentityNotFound when no user has id
func (a *Accounts) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := a.repo.Users().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// FindByIdentifier matches identifier against email or username
func (a *Accounts) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := a.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// UpdateProfile applies update to the user. A changed email or username
// must not belong to another account.
func (a *Accounts) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*models.User, error) {
	if update.Empty() {
		return a.GetByID(ctx, id)
	}

	var user *models.User
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := a.repo.Users()

		current, err := users.GetByIDTx(ctx, tx, id)
		if err != nil {
			return mapNotFound(err)
		}

		record := &models.User{ID: id}
		columns := make([]string, 0, 5)

		if update.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*update.Email))
			if email != current.Email {
				taken, err := users.ExistsByFieldTx(ctx, tx, "email", email)
				if err != nil {
					return err
				}
				if taken {
					return NewDuplicateEmail()
				}
			}
			record.Email = email
			columns = append(columns, "email")
		}

		if update.Username != nil {
			username := strings.TrimSpace(*update.Username)
			if username != current.Username {
				taken, err := users.ExistsByFieldTx(ctx, tx, "username", username)
				if err != nil {
					return err
				}
				if taken {
					return NewDuplicateUsername()
				}
			}
			record.Username = username
			columns = append(columns, "username")
		}

		if update.FullName != nil {
			record.FullName = strings.TrimSpace(*update.FullName)
			columns = append(columns, "full_name")
		}

		if update.Phone != nil {
			phone, err := NormalizePhone(*update.Phone)
			if err != nil {
				return err
			}
			record.Phone = phone
			columns = append(columns, "phone_number")
		}

		if update.Bio != nil {
			record.Bio = strings.TrimSpace(*update.Bio)
			columns = append(columns, "bio")
		}

		user, err = users.UpdateTx(ctx, tx, record, columns...)
		if err != nil {
			if conflict := accountConflict(err); conflict != nil {
				return conflict
			}
			return mapNotFound(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (a *Accounts) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := a.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := a.hasher.ComparePasswordAndHash(current, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return NewIncorrectPassword()
		}
		a.logger.Error("change password compare error", "user_id", id, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify current password")
	}

	hash, err := a.hasher.HashPassword(next)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	if _, err := a.repo.Users().Update(ctx, &models.User{ID: id, PasswordHash: hash}, "password_hash"); err != nil {
		return mapNotFound(err)
	}

	a.logger.Info("password changed", "user_id", id)
	recordActivity(ctx, a.activitySink, a.logger, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		UserID:    id,
	})

	return nil
}

// SetActive flips is_active. Last write wins.
func (a *Accounts) SetActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	user, err := a.repo.Users().SetActive(ctx, id, active)
	if err != nil {
		return nil, mapNotFound(err)
	}

	recordActivity(ctx, a.activitySink, a.logger, ActivityEvent{
		EventType: ActivityEventUserStatusChanged,
		UserID:    id,
		Metadata: map[string]any{
			"active": active,
		},
	})

	return user, nil
}

// EnsureSuperuser creates an active superuser for email unless an account
// with that email already exists. The username is the email local part,
// suffixed when another account already holds it.
func (a *Accounts) EnsureSuperuser(ctx context.Context, email, password string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := a.FindByIdentifier(ctx, email)
	if err == nil && existing.Email == email {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, ErrIdentityNotFound) {
		return nil, false, err
	}

	hash, err := a.hasher.HashPassword(password)
	if err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	var user *models.User
	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := a.repo.Users()

		taken, err := users.ExistsByFieldTx(ctx, tx, "email", email)
		if err != nil {
			return err
		}
		if taken {
			return NewDuplicateEmail()
		}

		username, err := a.availableUsername(ctx, tx, email)
		if err != nil {
			return err
		}

		user, err = users.CreateTx(ctx, tx, &models.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			Active:       true,
			Superuser:    true,
			Verified:     true,
		})
		if err != nil {
			if conflict := accountConflict(err); conflict != nil {
				return conflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	a.logger.Info("superuser created", "user_id", user.ID, "email", user.Email, "username", user.Username)
	return user, true, nil
}

func (a *Accounts) TouchLastLogin(ctx context.Context, id int64) error {
	return a.repo.Users().TrackSuccessfulLogin(ctx, id, a.now())
}

const maxUsernameSuffix = 50

// availableUsername tries the email local part, then numbered variants,
// then the full email.
func (a *Accounts) availableUsername(ctx context.Context, tx bun.IDB, email string) (string, error) {
	base := usernameFromEmail(email)
	users := a.repo.Users()

	candidate := base
	for i := 2; i <= maxUsernameSuffix+1; i++ {
		taken, err := users.ExistsByFieldTx(ctx, tx, "username", candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	taken, err := users.ExistsByFieldTx(ctx, tx, "username", email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", NewDuplicateUsername()
	}
	return email, nil
}

// accountConflict maps a unique constraint failure on users to the
// matching duplicate error, or returns nil
func accountConflict(err error) error {
	column, ok := repository.UniqueViolationColumn(err)
	if !ok {
		return nil
	}
	switch column {
	case "users.email":
		return NewDuplicateEmail()
	case "users.username":
		return NewDuplicateUsername()
	default:
		return nil
	}
}

func usernameFromEmail(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return email
}

func mapNotFound(err error) error {
	if repository.IsRecordNotFound(err) {
		return ErrIdentityNotFound
	}
	return err
}
