package auth

import (
	"context"
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type usersRepo struct {
	repository.Repository[*User]
	db     *bun.DB
	logger Logger
}

var _ Users = (*usersRepo)(nil)

type UsersOption func(*usersRepo)

func WithUsersLogger(logger Logger) UsersOption {
	return func(r *usersRepo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	repoUsers := &usersRepo{
		Repository: repo,
		db:         db,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

// GetByUsername is a point lookup. Lookups are case sensitive, matching
// the uniqueness constraint, so "Alice" and "alice" are different accounts.
func (r *usersRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getByColumn(ctx, "username", strings.TrimSpace(username))
}

func (r *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getByColumn(ctx, "id", id.String())
}

func (r *usersRepo) getByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}

	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, r.storeError(err, "user lookup failed")
	}

	return record, nil
}

// Create inserts a new user. The store's unique violation signal is
// translated into ErrDuplicateUsername; the raw driver error stays inside
// the package.
func (r *usersRepo) Create(ctx context.Context, record *User) (*User, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *usersRepo) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record == nil {
		return nil, goerrors.New("user record must not be nil", goerrors.CategoryBadInput)
	}
	// Trim before the bound check so the stored value matches what
	// GetByUsername will look up.
	record.Username = strings.TrimSpace(record.Username)
	if record.Username == "" || len(record.Username) > MaxUsernameLength {
		return nil, goerrors.New("username length out of bounds", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return r.insertTx(ctx, tx, record)
}

func (r *usersRepo) insertTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if IsDuplicateError(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, r.storeError(err, "user create failed")
	}

	return record, nil
}

// FindOrProvisionByExternalID resolves a federated subject to its local
// account, provisioning a passwordless one on first login. The account id
// derives deterministically from the external id, so retries and races
// converge on the same row.
func (r *usersRepo) FindOrProvisionByExternalID(ctx context.Context, externalID string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, goerrors.New("external id must not be empty", goerrors.CategoryBadInput)
	}
	if len(externalID) > MaxExternalIDLength {
		return nil, goerrors.New("external id length out of bounds", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := r.GetByUsername(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	// Provider subjects skip the registration-side username bound; they
	// are validated against MaxExternalIDLength above instead.
	record := &User{Username: externalID}
	if id, err := hashid.NewUUID(externalID); err == nil {
		record.ID = id
	}

	created, err := r.insertTx(ctx, r.db, record)
	if err == nil {
		return created, nil
	}

	// Lost the provisioning race: another login inserted the row first.
	if goerrors.Is(err, ErrDuplicateUsername) {
		return r.GetByUsername(ctx, externalID)
	}

	return nil, err
}

func (r *usersRepo) storeError(err error, msg string) error {
	r.logger.Error(msg, "error", err)
	return goerrors.Wrap(err, ErrStoreUnavailable.Category, msg).
		WithTextCode(ErrStoreUnavailable.TextCode).
		WithCode(ErrStoreUnavailable.Code)
}
