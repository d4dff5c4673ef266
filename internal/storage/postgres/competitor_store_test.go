package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

func TestUpsertWritesConflictSafeRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewCompetitorStoreWithPool(mock, "competitors")
	require.NoError(t, err)

	name := "Gymshark"
	followers := int64(6800000)
	rec := competitor.Competitor{
		Handle:          "gymshark",
		Platform:        competitor.PlatformInstagram,
		FullName:        &name,
		FollowersCount:  &followers,
		ConfidenceScore: 88.2,
		InclusionReason: "reason",
	}

	mock.ExpectExec(`(?s)INSERT INTO competitors.*ON CONFLICT \(handle, platform\) DO UPDATE SET`).
		WithArgs(
			rec.Handle,
			"INSTAGRAM",
			rec.FullName,
			rec.Biography,
			rec.FollowersCount,
			rec.FollowingCount,
			rec.PostsCount,
			rec.AvatarURL,
			rec.ConfidenceScore,
			rec.InclusionReason,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewCompetitorStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO competitors").WillReturnError(errors.New("deadlock"))

	err = store.Upsert(context.Background(), competitor.Competitor{Handle: "h", Platform: competitor.PlatformTikTok})
	require.ErrorContains(t, err, "upsert competitor: deadlock")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsEmptyHandle(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewCompetitorStoreWithPool(mock, "competitors")
	require.NoError(t, err)

	require.Error(t, store.Upsert(context.Background(), competitor.Competitor{Platform: competitor.PlatformTikTok}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewCompetitorStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewCompetitorStoreWithPool(nil, "competitors")
	require.ErrorContains(t, err, "pool is required")

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewCompetitorStoreWithPool(mock, "competitors; DROP TABLE x")
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewCompetitorStore(context.Background(), CompetitorStoreConfig{})
	require.ErrorContains(t, err, "store.dsn is required")
}

func TestNilStoreIsUnavailable(t *testing.T) {
	t.Parallel()

	var store *CompetitorStore
	require.ErrorIs(t, store.Upsert(context.Background(), competitor.Competitor{Handle: "h"}), competitor.ErrStoreUnavailable)
	store.Close()
}

func TestPing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewCompetitorStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.ErrorContains(t, store.Ping(context.Background()), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())

	var nilStore *CompetitorStore
	require.ErrorIs(t, nilStore.Ping(context.Background()), competitor.ErrStoreUnavailable)
}
