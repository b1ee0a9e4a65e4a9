package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"moneyshelf/internal/models"
	"moneyshelf/internal/repository"
	"moneyshelf/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFunc func(ctx context.Context, now time.Time) (int64, error)

func (f storeFunc) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	return f(ctx, now)
}

func TestOTPSweeper_SweepOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	expired := &models.User{Username: "old", Email: "old@example.com", Password: "x"}
	fresh := &models.User{Username: "new", Email: "new@example.com", Password: "x"}
	require.NoError(t, users.Create(ctx, expired))
	require.NoError(t, users.Create(ctx, fresh))
	require.NoError(t, users.SetOTP(ctx, expired.ID, "123456", now.Add(-time.Minute)))
	require.NoError(t, users.SetOTP(ctx, fresh.ID, "654321", now.Add(time.Minute)))

	s := NewOTPSweeper(users)
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := users.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OTPCode)
	got, err = users.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OTPCode)
	assert.Equal(t, "654321", *got.OTPCode)
}

func TestOTPSweeper_SweepError(t *testing.T) {
	s := NewOTPSweeper(storeFunc(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db down")
	}))
	_, err := s.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestOTPSweeper_Schedule(t *testing.T) {
	var calls atomic.Int32
	s := NewOTPSweeper(storeFunc(func(context.Context, time.Time) (int64, error) {
		calls.Add(1)
		return 0, nil
	}))

	assert.Error(t, s.Start("not a schedule"))

	require.NoError(t, s.Start("@every 1s"))
	assert.Error(t, s.Start("@every 1s"), "double start")
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
