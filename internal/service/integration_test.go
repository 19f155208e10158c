package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/engine"
	"github.com/potsplit/settle-engine/internal/repository"
	"github.com/potsplit/settle-engine/internal/service"
	"github.com/potsplit/settle-engine/internal/testutil"
)

var fixedNow = time.Date(2026, 5, 17, 21, 0, 0, 0, time.UTC)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func setupService(t *testing.T, db *sql.DB) *service.Service {
	t.Helper()
	eng := engine.New(engine.Params{
		LargePaymentCents: 100000,
		Now:               func() time.Time { return fixedNow },
	})
	return service.New(
		repository.NewSessionRepository(db),
		repository.NewPlayerRepository(db),
		repository.NewEntryRepository(db),
		repository.NewSettlementRepository(db),
		eng,
		0,
	)
}

func TestSessionLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "friday night", "USD")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusActive, sess.Status)

	alice, err := svc.AddPlayer(ctx, sess.ID, "alice")
	require.NoError(t, err)
	bob, err := svc.AddPlayer(ctx, sess.ID, "bob")
	require.NoError(t, err)
	carol, err := svc.AddPlayer(ctx, sess.ID, "carol")
	require.NoError(t, err)

	_, err = svc.AddPlayer(ctx, sess.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrDuplicatePlayer)

	for _, e := range []struct {
		player    *domain.Player
		entryType domain.EntryType
		amount    string
	}{
		{alice, domain.EntryTypeBuyIn, "100.00"},
		{alice, domain.EntryTypeCashOut, "170.00"},
		{bob, domain.EntryTypeBuyIn, "100.00"},
		{bob, domain.EntryTypeCashOut, "60.00"},
		{carol, domain.EntryTypeBuyIn, "100.00"},
		{carol, domain.EntryTypeCashOut, "70.00"},
	} {
		testutil.SeedEntry(t, db, sess.ID, e.player.ID, e.entryType, e.amount)
	}

	snap, err := svc.Snapshot(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, snap.Balances, 3)

	settlement, err := svc.Settle(ctx, sess.ID, service.SettleOptions{})
	require.NoError(t, err)
	require.True(t, settlement.IsValid)
	assert.Equal(t, int64(7000), settlement.Metrics.TotalSettled)
	assert.Equal(t, 1, testutil.CountSettlements(t, db, sess.ID))

	// A valid settlement flips the session to settled.
	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusSettled, got.Status)

	// The stored document round-trips intact.
	latest, err := svc.LatestSettlement(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.ID, latest.ID)
	assert.Equal(t, settlement.Algorithm, latest.Algorithm)
	assert.Equal(t, settlement.Payments, latest.Payments)
	require.NotNil(t, latest.Proof)
	assert.Equal(t, settlement.Proof.Verification, latest.Proof.Verification)
	assert.Equal(t, settlement.Proof.Exports.Text, latest.Proof.Exports.Text)

	warnings, err := svc.RecheckSettlement(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	cmp, err := svc.CompareStrategies(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, cmp.Alternatives, len(domain.Algorithms()))
}

func TestSettleSupersedesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sess := testutil.SeedSession(t, db, "rematch", "USD")
	alice := testutil.SeedPlayer(t, db, sess.ID, "alice")
	bob := testutil.SeedPlayer(t, db, sess.ID, "bob")
	testutil.SeedEntry(t, db, sess.ID, alice.ID, domain.EntryTypeBuyIn, "50.00")
	testutil.SeedEntry(t, db, sess.ID, alice.ID, domain.EntryTypeCashOut, "80.00")
	testutil.SeedEntry(t, db, sess.ID, bob.ID, domain.EntryTypeBuyIn, "50.00")
	testutil.SeedEntry(t, db, sess.ID, bob.ID, domain.EntryTypeCashOut, "20.00")

	first, err := svc.Settle(ctx, sess.ID, service.SettleOptions{Algorithm: domain.AlgorithmGreedy})
	require.NoError(t, err)
	second, err := svc.Settle(ctx, sess.ID, service.SettleOptions{Algorithm: domain.AlgorithmDirect})
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CountSettlements(t, db, sess.ID))

	latest, err := svc.LatestSettlement(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
}

func TestRecordEntryValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sess := testutil.SeedSession(t, db, "strict", "USD")
	alice := testutil.SeedPlayer(t, db, sess.ID, "alice")

	_, err := svc.RecordEntry(ctx, sess.ID, alice.ID, domain.EntryTypeBuyIn, dec(t, "100.00"))
	require.NoError(t, err)

	_, err = svc.RecordEntry(ctx, sess.ID, alice.ID, domain.EntryType("refund"), dec(t, "10.00"))
	assert.ErrorIs(t, err, domain.ErrInvalidEntryType)

	_, err = svc.RecordEntry(ctx, sess.ID, alice.ID, domain.EntryTypeBuyIn, dec(t, "-5.00"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	stranger := testutil.SeedPlayer(t, db, testutil.SeedSession(t, db, "other", "USD").ID, "bob")
	_, err = svc.RecordEntry(ctx, sess.ID, stranger.ID, domain.EntryTypeBuyIn, dec(t, "10.00"))
	assert.ErrorIs(t, err, domain.ErrUnknownPlayer)
}

func TestLatestSettlementNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)

	sess := testutil.SeedSession(t, db, "fresh", "USD")
	_, err := svc.LatestSettlement(context.Background(), sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
