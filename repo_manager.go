package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Sessions() Sessions
}

type mngr struct {
	db       *bun.DB
	users    Users
	sessions Sessions
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		sessions: NewSessionsRepository(db),
	}
}

// NewCachedRepositoryManager layers read-through caching on top of the
// durable repositories.
func NewCachedRepositoryManager(db *bun.DB, cache Cache, cfg Config) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewCachedUsers(NewUsersRepository(db), cache, cfg),
		sessions: NewCachedSessions(NewSessionsRepository(db), cache, cfg),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Sessions() Sessions {
	return m.sessions
}
