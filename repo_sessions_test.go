package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-session-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	sessions auth.Sessions
	userID   uuid.UUID
}

func setupSessionsRepo(t *testing.T) sessionFixture {
	t.Helper()

	db := setupAuthDB(t)
	users := auth.NewUsersRepository(db)
	user := createTestUser(t, users, "pepe")

	return sessionFixture{
		sessions: auth.NewSessionsRepository(db),
		userID:   user.ID,
	}
}

func TestSessionsCreateOrReuseCoalesces(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	first, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:      fx.userID,
		Name:     "laptop",
		IP:       "10.0.0.1",
		CanAbort: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.UUID)
	assert.Equal(t, auth.SessionActive, first.Status)
	assert.True(t, first.CanAbort)

	// same (sub, name, ip) triple lands on the same row
	second, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:      fx.userID,
		Name:     "laptop",
		IP:       "10.0.0.1",
		CanAbort: false,
	})
	require.NoError(t, err)
	assert.Equal(t, first.UUID, second.UUID, "reused session keeps its original uuid")
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CanAbort, "reuse must not overwrite the original grant")

	// a different device gets its own row
	other, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  fx.userID,
		Name: "phone",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.UUID, other.UUID)
}

func TestSessionsCreateOrReuseConcurrent(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	const logins = 8
	results := make(chan *auth.Session, logins)
	errs := make(chan error, logins)

	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
				Sub:  fx.userID,
				Name: "laptop",
				IP:   "10.0.0.1",
			})
			if err != nil {
				errs <- err
				return
			}
			results <- session
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// every racing login lands on the same row and uuid
	uuids := map[string]bool{}
	for session := range results {
		uuids[session.UUID] = true
	}
	require.Len(t, uuids, 1)

	rows, err := fx.sessions.ListForSubject(ctx, fx.userID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "racing logins must coalesce to one row")
	assert.True(t, uuids[rows[0].UUID])
}

func TestSessionsCreateOrReuseReactivates(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	session, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  fx.userID,
		Name: "laptop",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)

	require.NoError(t, fx.sessions.Revoke(ctx, session.UUID))

	got, err := fx.sessions.GetActive(ctx, session.UUID)
	require.NoError(t, err)
	require.Nil(t, got)

	// logging back in from the same device flips the row back to active
	again, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  fx.userID,
		Name: "laptop",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, session.UUID, again.UUID)
	assert.Equal(t, auth.SessionActive, again.Status)

	got, err = fx.sessions.GetActive(ctx, session.UUID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive())
}

func TestSessionsCreateOrReuseValidatesCandidate(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	_, err := fx.sessions.CreateOrReuse(ctx, nil)
	assert.Error(t, err)

	_, err = fx.sessions.CreateOrReuse(ctx, &auth.Session{Name: "laptop", IP: "10.0.0.1"})
	assert.Error(t, err)
}

func TestSessionsGetActive(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	session, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  fx.userID,
		Name: "laptop",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)

	got, err := fx.sessions.GetActive(ctx, session.UUID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.UUID, got.UUID)

	got, err = fx.sessions.GetActive(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got, "missing session reads as nil, not an error")
}

func TestSessionsRevokeIsIdempotent(t *testing.T) {
	fx := setupSessionsRepo(t)
	ctx := context.Background()

	session, err := fx.sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  fx.userID,
		Name: "laptop",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)

	require.NoError(t, fx.sessions.Revoke(ctx, session.UUID))
	require.NoError(t, fx.sessions.Revoke(ctx, session.UUID))
	require.NoError(t, fx.sessions.Revoke(ctx, uuid.NewString()))
}

func TestSessionsRevokeOwned(t *testing.T) {
	db := setupAuthDB(t)
	users := auth.NewUsersRepository(db)
	sessions := auth.NewSessionsRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, users, "pepe")
	stranger := createTestUser(t, users, "rane")

	session, err := sessions.CreateOrReuse(ctx, &auth.Session{
		Sub:  owner.ID,
		Name: "laptop",
		IP:   "10.0.0.1",
	})
	require.NoError(t, err)

	// someone else's subject cannot touch the session
	err = sessions.RevokeOwned(ctx, stranger.ID, session.UUID)
	assertTextCode(t, err, auth.TextCodeSessionNotFound)

	got, err := sessions.GetActive(ctx, session.UUID)
	require.NoError(t, err)
	require.NotNil(t, got, "failed revoke must leave the session untouched")

	require.NoError(t, sessions.RevokeOwned(ctx, owner.ID, session.UUID))

	got, err = sessions.GetActive(ctx, session.UUID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// the row is gone from the owner's point of view too now
	err = sessions.RevokeOwned(ctx, owner.ID, uuid.NewString())
	assertTextCode(t, err, auth.TextCodeSessionNotFound)
}

func TestSessionsListForSubject(t *testing.T) {
	db := setupAuthDB(t)
	users := auth.NewUsersRepository(db)
	sessions := auth.NewSessionsRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, users, "pepe")
	other := createTestUser(t, users, "rane")

	laptop, err := sessions.CreateOrReuse(ctx, &auth.Session{Sub: owner.ID, Name: "laptop", IP: "10.0.0.1"})
	require.NoError(t, err)

	phone, err := sessions.CreateOrReuse(ctx, &auth.Session{Sub: owner.ID, Name: "phone", IP: "10.0.0.2"})
	require.NoError(t, err)

	_, err = sessions.CreateOrReuse(ctx, &auth.Session{Sub: other.ID, Name: "laptop", IP: "10.0.0.3"})
	require.NoError(t, err)

	// pin distinct timestamps so the ordering assertion is deterministic
	_, err = db.Exec("UPDATE sessions SET timestamp = ? WHERE uuid = ?", "2026-01-01 10:00:00", laptop.UUID)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE sessions SET timestamp = ? WHERE uuid = ?", "2026-01-01 09:00:00", phone.UUID)
	require.NoError(t, err)

	list, err := sessions.ListForSubject(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, phone.UUID, list[0].UUID)
	assert.Equal(t, laptop.UUID, list[1].UUID)

	empty, err := sessions.ListForSubject(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
