package auth

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessionsRepo struct {
	db     *bun.DB
	logger Logger
}

var _ Sessions = (*sessionsRepo)(nil)

type SessionsOption func(*sessionsRepo)

func WithSessionsLogger(logger Logger) SessionsOption {
	return func(r *sessionsRepo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSessionsRepository creates the durable session store. Unlike users,
// sessions carry a storage-assigned integer key, so this repository talks
// to bun directly instead of going through the uuid-keyed generic base.
func NewSessionsRepository(db *bun.DB, opts ...SessionsOption) Sessions {
	repo := &sessionsRepo{
		db:     db,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// CreateOrReuse resolves the candidate's (sub, name, ip) key against the
// unique constraint in a single upsert. Two concurrent logins from the
// same device race on the insert, one wins, and both read back the same
// row with its original uuid. A plain read-then-write here would be a race.
func (r *sessionsRepo) CreateOrReuse(ctx context.Context, candidate *Session) (*Session, error) {
	return r.CreateOrReuseTx(ctx, r.db, candidate)
}

func (r *sessionsRepo) CreateOrReuseTx(ctx context.Context, tx bun.IDB, candidate *Session) (*Session, error) {
	if candidate == nil {
		return nil, goerrors.New("session candidate must not be nil", goerrors.CategoryBadInput)
	}
	if candidate.Sub == uuid.Nil {
		return nil, goerrors.New("session candidate requires a subject", goerrors.CategoryBadInput)
	}

	record := &Session{
		UUID:     uuid.NewString(),
		Status:   SessionActive,
		Sub:      candidate.Sub,
		Name:     candidate.Name,
		IP:       candidate.IP,
		CanAbort: candidate.CanAbort,
	}

	// On conflict only the status flips; uuid, timestamp, and can_abort
	// keep their original values so the client-facing identifier stays
	// stable across repeated logins.
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (sub, name, ip) DO UPDATE").
		Set("status = ?", SessionActive).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, r.storeError(err, "session create or reuse failed")
	}

	return record, nil
}

// GetActive returns nil without error when the session is missing or in
// any status other than active. Callers cannot distinguish the two.
func (r *sessionsRepo) GetActive(ctx context.Context, sessionUUID string) (*Session, error) {
	record := &Session{}

	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.uuid = ?", sessionUUID).
		Where("?TableAlias.status = ?", SessionActive).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.storeError(err, "session lookup failed")
	}

	return record, nil
}

func (r *sessionsRepo) ListForSubject(ctx context.Context, sub uuid.UUID) ([]*Session, error) {
	var records []*Session

	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.sub = ?", sub).
		Order("timestamp ASC").
		Scan(ctx)

	if err != nil {
		return nil, r.storeError(err, "session list failed")
	}

	return records, nil
}

// Revoke is unconditional and idempotent: revoking a missing or already
// disabled session succeeds silently.
func (r *sessionsRepo) Revoke(ctx context.Context, sessionUUID string) error {
	return r.RevokeTx(ctx, r.db, sessionUUID)
}

func (r *sessionsRepo) RevokeTx(ctx context.Context, tx bun.IDB, sessionUUID string) error {
	_, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("status = ?", SessionDisabled).
		Where("uuid = ?", sessionUUID).
		Exec(ctx)

	if err != nil {
		return r.storeError(err, "session revoke failed")
	}

	return nil
}

// RevokeOwned reports ErrSessionNotFound whether the target belongs to a
// different subject or does not exist at all; callers must not learn which.
func (r *sessionsRepo) RevokeOwned(ctx context.Context, actingSub uuid.UUID, targetUUID string) error {
	res, err := r.db.NewUpdate().
		Model((*Session)(nil)).
		Set("status = ?", SessionDisabled).
		Where("uuid = ?", targetUUID).
		Where("sub = ?", actingSub).
		Exec(ctx)

	if err != nil {
		return r.storeError(err, "session revoke failed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.storeError(err, "session revoke failed")
	}

	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *sessionsRepo) storeError(err error, msg string) error {
	r.logger.Error(msg, "error", err)
	return goerrors.Wrap(err, ErrStoreUnavailable.Category, msg).
		WithTextCode(ErrStoreUnavailable.TextCode).
		WithCode(ErrStoreUnavailable.Code)
}
