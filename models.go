package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionStatus is the lifecycle state of a login session.
type SessionStatus = string

const (
	// SessionActive is a live session whose tokens are honored
	SessionActive SessionStatus = "active"
	// SessionExpired is a session past its useful life
	SessionExpired SessionStatus = "expired"
	// SessionDisabled is a revoked session. Terminal.
	SessionDisabled SessionStatus = "disabled"
)

// MaxUsernameLength bounds usernames chosen at registration.
const MaxUsernameLength = 22

// MaxExternalIDLength bounds provider subjects stored as usernames for
// federated accounts. Providers emit opaque ids well past the
// registration bound ("google-oauth2|" plus a numeric id already is),
// so provisioning carries its own limit.
const MaxExternalIDLength = 255

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string    `bun:"username,notnull,unique" json:"username,omitempty"`
	// PasswordHash is empty for accounts provisioned through an identity
	// provider; those can never authenticate with a password.
	PasswordHash string     `bun:"password_hash,nullzero" json:"password_hash,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// HasPassword reports whether the account can do password login at all.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Session is one authenticated device/client instance. A session outlives
// any single token minted against it; revocation flips status rather than
// deleting the row.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`
	ID            int64         `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UUID          string        `bun:"uuid,notnull,unique" json:"uuid,omitempty"`
	Status        SessionStatus `bun:"status,notnull" json:"status,omitempty"`
	Timestamp     time.Time     `bun:"timestamp,nullzero,notnull,default:current_timestamp" json:"timestamp,omitempty"`
	Sub           uuid.UUID     `bun:"sub,notnull,type:uuid,unique:sessions_coalesce_key" json:"sub,omitempty"`
	Name          string        `bun:"name,notnull,unique:sessions_coalesce_key" json:"name,omitempty"`
	IP            string        `bun:"ip,notnull,unique:sessions_coalesce_key" json:"ip,omitempty"`
	CanAbort      bool          `bun:"can_abort,notnull,default:false" json:"can_abort,omitempty"`
}

// IsActive reports whether tokens bound to the session are usable.
func (s *Session) IsActive() bool {
	return s != nil && s.Status == SessionActive
}

// CreateAuthTables creates the users and sessions tables along with the
// unique coalescing index. The (sub, name, ip) uniqueness is what makes
// CreateOrReuse safe under concurrent logins from the same device.
func CreateAuthTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*Session)(nil)).
		IfNotExists().
		ForeignKey(`("sub") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	_, err := db.NewCreateIndex().
		Model((*Session)(nil)).
		Index("ix_sessions_sub_timestamp").
		IfNotExists().
		Column("sub", "timestamp").
		Exec(ctx)

	return err
}
