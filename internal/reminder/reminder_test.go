package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/model"
)

type fakeWheels struct {
	mu     sync.Mutex
	wheels []model.WheelRotation
	until  []time.Time
	err    error
}

func (f *fakeWheels) WheelsDueBefore(_ context.Context, t time.Time) ([]model.WheelRotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.until = append(f.until, t)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.WheelRotation
	for _, w := range f.wheels {
		if w.NextRotationDue != nil && !w.NextRotationDue.After(t) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWheels) set(wheels ...model.WheelRotation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wheels = wheels
}

func (f *fakeWheels) scans() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.until)
}

type fakeDispatcher struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, w model.WheelRotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("queue closed")
	}
	f.ids = append(f.ids, w.ID)
	return nil
}

func wheelDue(id string, due time.Time) model.WheelRotation {
	return model.WheelRotation{ID: id, NextRotationDue: &due, IsActive: true}
}

func TestService_ScanOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := config.ReminderConfig{Enabled: true, Interval: time.Hour, Horizon: 72 * time.Hour}

	wheels := &fakeWheels{}
	wheels.set(
		wheelDue("overdue", now.Add(-24*time.Hour)),
		wheelDue("soon", now.Add(48*time.Hour)),
		wheelDue("later", now.Add(10*24*time.Hour)),
	)
	dispatcher := &fakeDispatcher{}

	s := NewService(cfg, wheels, dispatcher, zap.NewNop())
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.ScanOnce(context.Background()))
	assert.Equal(t, []string{"overdue", "soon"}, dispatcher.ids)
	assert.Equal(t, now.Add(72*time.Hour), wheels.until[0])

	// Same due dates are not reminded twice.
	assert.Equal(t, 0, s.ScanOnce(context.Background()))

	// A rotation moves the due date, which earns a fresh reminder.
	wheels.set(wheelDue("soon", now.Add(60*time.Hour)))
	assert.Equal(t, 1, s.ScanOnce(context.Background()))
	assert.Equal(t, []string{"overdue", "soon", "soon"}, dispatcher.ids)
}

func TestService_ScanOnce_Errors(t *testing.T) {
	cfg := config.ReminderConfig{Enabled: true, Interval: time.Hour, Horizon: time.Hour}

	wheels := &fakeWheels{err: errors.New("db down")}
	s := NewService(cfg, wheels, &fakeDispatcher{}, zap.NewNop())
	assert.Equal(t, 0, s.ScanOnce(context.Background()))

	now := time.Now().UTC()
	wheels = &fakeWheels{}
	wheels.set(wheelDue("w1", now))
	dispatcher := &fakeDispatcher{fail: true}
	s = NewService(cfg, wheels, dispatcher, zap.NewNop())
	assert.Equal(t, 0, s.ScanOnce(context.Background()))

	// Failed dispatches are retried on the next scan.
	dispatcher.fail = false
	assert.Equal(t, 1, s.ScanOnce(context.Background()))
}

func TestService_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.ReminderConfig{Enabled: true, Interval: 10 * time.Millisecond, Horizon: time.Hour}
	wheels := &fakeWheels{}
	s := NewService(cfg, wheels, &fakeDispatcher{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return wheels.scans() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestService_Run_Disabled(t *testing.T) {
	wheels := &fakeWheels{}
	s := NewService(config.ReminderConfig{Enabled: false}, wheels, &fakeDispatcher{}, zap.NewNop())
	s.Run(context.Background())
	assert.Zero(t, wheels.scans())
}
