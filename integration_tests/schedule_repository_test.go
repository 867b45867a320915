package integrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
	schedulemigrations "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories/migrations"
	"github.com/polp-online/schedule-service/integration_tests/containers"
	"github.com/polp-online/schedule-service/integration_tests/testutils"
	"github.com/polp-online/schedule-service/internal/db/bundb"
)

func setupRepository(t *testing.T) (*scheduledb.ScheduleDBImpl, *testutils.TestDataGenerator) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	db, err := bundb.NewDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	migrator := migrate.NewMigrator(db, schedulemigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return &scheduledb.ScheduleDBImpl{DB: db}, testutils.NewTestDataGenerator(42)
}

func seedEvents(t *testing.T, repo *scheduledb.ScheduleDBImpl, gen *testutils.TestDataGenerator, n int) []int64 {
	t.Helper()
	ctx := context.Background()

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		event := gen.GenerateEvent()
		_, err := repo.DB.NewInsert().Model(event).Exec(ctx)
		require.NoError(t, err)
		ids = append(ids, event.ID)
	}
	return ids
}

func seedUser(t *testing.T, repo *scheduledb.ScheduleDBImpl, gen *testutils.TestDataGenerator) int64 {
	t.Helper()
	user := gen.GenerateUser()
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user.ID
}

func TestScheduleRepository(t *testing.T) {
	repo, gen := setupRepository(t)
	ctx := context.Background()

	eventIDs := seedEvents(t, repo, gen, 3)
	userA := seedUser(t, repo, gen)
	userB := seedUser(t, repo, gen)

	t.Run("replace subscriptions assigns rounds by position", func(t *testing.T) {
		removed, err := repo.ReplaceSubscriptions(ctx, userA, []int64{eventIDs[0], eventIDs[1]})
		require.NoError(t, err)
		assert.Empty(t, removed, "first subscription has nothing to replace")

		subs, err := repo.SubscriptionsForUser(ctx, userA)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, eventIDs[0], subs[0].EventID)
		assert.Equal(t, int32(1), subs[0].Round)
		assert.Equal(t, eventIDs[1], subs[1].EventID)
		assert.Equal(t, int32(2), subs[1].Round)
	})

	t.Run("replace returns the removed rows", func(t *testing.T) {
		removed, err := repo.ReplaceSubscriptions(ctx, userA, []int64{eventIDs[2], eventIDs[2]})
		require.NoError(t, err)
		require.Len(t, removed, 2)
		assert.Equal(t, eventIDs[0], removed[0].EventID)

		subs, err := repo.SubscriptionsForUser(ctx, userA)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, eventIDs[2], subs[0].EventID)
		assert.Equal(t, eventIDs[2], subs[1].EventID)
	})

	t.Run("count subscribers includes explicit zeros", func(t *testing.T) {
		_, err := repo.ReplaceSubscriptions(ctx, userB, []int64{eventIDs[2]})
		require.NoError(t, err)

		counts, err := repo.CountSubscribers(ctx, []scheduledb.EventRound{
			{EventID: eventIDs[2], Round: 1},
			{EventID: eventIDs[0], Round: 1},
		})
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, int64(2), counts[0].Count, "both users hold round 1 of the third event")
		assert.Equal(t, int64(0), counts[1].Count, "drained pair reports zero")
	})

	t.Run("attendance stamps require a subscription", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)

		require.NoError(t, repo.SetJoinedAt(ctx, userB, eventIDs[2], now))
		require.NoError(t, repo.SetLeftAt(ctx, userB, eventIDs[2], now.Add(time.Hour)))

		err := repo.SetJoinedAt(ctx, userB, eventIDs[0], now)
		assert.ErrorIs(t, err, scheduledb.ErrSubscriptionNotFound)
	})

	t.Run("event users status joins user details", func(t *testing.T) {
		statuses, err := repo.EventUsersStatus(ctx, eventIDs[2], 1)
		require.NoError(t, err)
		require.Len(t, statuses, 2)

		var userBStatus *scheduledb.EventUserStatus
		for i := range statuses {
			if statuses[i].UserID == userB {
				userBStatus = &statuses[i]
			}
		}
		require.NotNil(t, userBStatus)
		assert.NotEmpty(t, userBStatus.Email)
		assert.NotNil(t, userBStatus.JoinedAt)
		assert.NotNil(t, userBStatus.LeftAt)
	})

	t.Run("list events returns capacities", func(t *testing.T) {
		capacities := []scheduledb.RoundMaxUsers{
			{Round: 1, EventID: eventIDs[0], MaxUsers: 25},
			{Round: 2, EventID: eventIDs[0], MaxUsers: 0},
		}
		_, err := repo.DB.NewInsert().Model(&capacities).Exec(ctx)
		require.NoError(t, err)

		events, err := repo.ListEvents(ctx)
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.Len(t, events[0].Capacities, 2)
		assert.Equal(t, int32(25), events[0].Capacities[0].MaxUsers)
	})

	t.Run("user lookup by email", func(t *testing.T) {
		user := gen.GenerateUser()
		require.NoError(t, repo.CreateUser(ctx, user))

		found, err := repo.GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, scheduledb.ErrUserNotFound)
	})
}
