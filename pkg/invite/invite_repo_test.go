package invite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/test_utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}()
	code := m.Run()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, *pgxpool.Pool) {
	ctx := context.Background()
	db := openDb()
	repository := NewRepository(db)
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, repository, db
}

func createTestUser(t *testing.T, ctx context.Context, db *pgxpool.Pool, id int, username string) {
	t.Helper()
	_, err := db.Exec(ctx,
		"INSERT INTO users (id, uid, username, display_name, timezone) VALUES ($1, $2, $3, $4, 'UTC')",
		id, uuid.NewString(), username, username)
	require.NoError(t, err)
}

func createTestEvent(t *testing.T, ctx context.Context, db *pgxpool.Pool, ownerId int) int {
	t.Helper()
	start := time.Now().UTC()
	var id int
	err := db.QueryRow(ctx,
		`INSERT INTO event (uid, user_id, title, colour, start_time, end_time)
		 VALUES ($1, $2, 'Dinner', '#0000af', $3, $4) RETURNING id`,
		uuid.New(), ownerId, start, start.Add(2*time.Hour)).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestRepositoryImpl_StoreAndFindInvite(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	createTestUser(t, ctx, db, 1, "anna")
	createTestUser(t, ctx, db, 2, "ben")
	eventId := createTestEvent(t, ctx, db, 1)

	t.Run("stores and reads back a pending invite", func(t *testing.T) {
		stored, err := repo.StoreInvite(ctx, Invite{
			EventID:   eventId,
			InviterID: 1,
			InviteeID: 2,
			Status:    StatusPending,
		})
		require.NoError(t, err)
		require.NotZero(t, stored.ID)
		assert.False(t, stored.CreatedAt.IsZero())

		found, err := repo.FindInvite(ctx, stored.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, StatusPending, found.Status)
		assert.Nil(t, found.RespondedAt)

		byPair, err := repo.FindByEventAndInvitee(ctx, eventId, 2)
		require.NoError(t, err)
		require.NotNil(t, byPair)
		assert.Equal(t, stored.ID, byPair.ID)
	})

	t.Run("duplicate (event, invitee) pair is rejected by the store", func(t *testing.T) {
		_, err := repo.StoreInvite(ctx, Invite{
			EventID:   eventId,
			InviterID: 1,
			InviteeID: 2,
			Status:    StatusPending,
		})
		assert.Error(t, err)
	})

	t.Run("unknown id yields nil", func(t *testing.T) {
		found, err := repo.FindInvite(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestRepositoryImpl_UpdateStatus(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	createTestUser(t, ctx, db, 1, "anna")
	createTestUser(t, ctx, db, 2, "ben")
	eventId := createTestEvent(t, ctx, db, 1)

	stored, err := repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 2, Status: StatusPending})
	require.NoError(t, err)

	respondedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateStatus(ctx, stored.ID, StatusAccepted, respondedAt))

	found, err := repo.FindInvite(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, StatusAccepted, found.Status)
	require.NotNil(t, found.RespondedAt)
	assert.Equal(t, respondedAt, found.RespondedAt.UTC())

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, StatusDeclined, respondedAt), ErrInviteNotFound)
}

func TestRepositoryImpl_Listing(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	createTestUser(t, ctx, db, 1, "anna")
	createTestUser(t, ctx, db, 2, "ben")
	createTestUser(t, ctx, db, 3, "cara")
	eventId := createTestEvent(t, ctx, db, 1)
	otherEventId := createTestEvent(t, ctx, db, 2)

	_, err := repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 2, Status: StatusPending})
	require.NoError(t, err)
	_, err = repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 3, Status: StatusAccepted})
	require.NoError(t, err)
	_, err = repo.StoreInvite(ctx, Invite{EventID: otherEventId, InviterID: 2, InviteeID: 3, Status: StatusDeclined})
	require.NoError(t, err)

	t.Run("by event", func(t *testing.T) {
		invites, err := repo.FindForEvent(ctx, eventId)
		require.NoError(t, err)
		assert.Len(t, invites, 2)
	})

	t.Run("by invitee", func(t *testing.T) {
		invites, err := repo.FindForInvitee(ctx, 3, nil)
		require.NoError(t, err)
		assert.Len(t, invites, 2)
	})

	t.Run("by invitee and status", func(t *testing.T) {
		declined := StatusDeclined
		invites, err := repo.FindForInvitee(ctx, 3, &declined)
		require.NoError(t, err)
		require.Len(t, invites, 1)
		assert.Equal(t, otherEventId, invites[0].EventID)
	})
}

func TestRepositoryImpl_CancelOpenInvitesForEvent(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	createTestUser(t, ctx, db, 1, "anna")
	createTestUser(t, ctx, db, 2, "ben")
	createTestUser(t, ctx, db, 3, "cara")
	createTestUser(t, ctx, db, 4, "dan")
	eventId := createTestEvent(t, ctx, db, 1)

	pending, err := repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 2, Status: StatusPending})
	require.NoError(t, err)
	accepted, err := repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 3, Status: StatusAccepted})
	require.NoError(t, err)
	declined, err := repo.StoreInvite(ctx, Invite{EventID: eventId, InviterID: 1, InviteeID: 4, Status: StatusDeclined})
	require.NoError(t, err)

	cancelled, err := repo.CancelOpenInvitesForEvent(ctx, eventId)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)

	for _, id := range []int{pending.ID, accepted.ID} {
		found, err := repo.FindInvite(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, StatusCancelled, found.Status)
	}
	untouched, err := repo.FindInvite(ctx, declined.ID)
	require.NoError(t, err)
	require.NotNil(t, untouched)
	assert.Equal(t, StatusDeclined, untouched.Status)
}
