// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneyshelf/internal/middleware"
	"moneyshelf/internal/observability"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

// OTPStore clears reset codes whose expiration has passed.
type OTPStore interface {
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// OTPSweeper periodically nulls expired OTP codes so stale codes do not linger.
type OTPSweeper struct {
	store OTPStore
	now   func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewOTPSweeper(store OTPStore) *OTPSweeper {
	return &OTPSweeper{store: store, now: time.Now}
}

// Start schedules the sweep with a cron spec such as "@every 15m".
func (s *OTPSweeper) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("otp sweeper already started")
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	middleware.Logger.Info("otp sweeper started", "schedule", spec)
	return nil
}

// Stop cancels the schedule and waits for a running sweep or ctx, whichever ends first.
func (s *OTPSweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *OTPSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.SweepOnce(ctx); err != nil {
		middleware.Logger.Error("otp sweep failed", "error", err)
	}
}

// SweepOnce clears every expired code and returns how many were cleared.
func (s *OTPSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.ClearExpiredOTPs(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.OTPSweeps.Add(float64(n))
		middleware.Logger.InfoContext(ctx, "expired otp codes cleared", "count", n)
	}
	return n, nil
}
