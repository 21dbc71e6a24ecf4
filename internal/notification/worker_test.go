package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

type fakeSubscriptions struct {
	store.SubscriptionStore

	mu      sync.Mutex
	byWheel map[string][]model.PushSubscription
	deleted []string
	err     error
}

func (f *fakeSubscriptions) SubscriptionsForWheel(_ context.Context, wheelID string) ([]model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byWheel[wheelID], f.err
}

func (f *fakeSubscriptions) DeleteSubscription(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func (f *fakeSubscriptions) deletedEndpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func dueWheel(id string) model.WheelRotation {
	due := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return model.WheelRotation{
		ID:                id,
		Station:           "LHR",
		WheelPartNumber:   "3-1547-2",
		WheelSerialNumber: "SN-" + id,
		NextRotationDue:   &due,
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Wheel 3-1547-2 S/N SN-w1 at LHR rotation due 2024-03-15", Message(dueWheel("w1")))

	w := dueWheel("w2")
	w.NextRotationDue = nil
	assert.Equal(t, "Wheel 3-1547-2 S/N SN-w2 at LHR rotation due unscheduled", Message(w))
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, &fakeSubscriptions{}, &webpush.Options{}, zap.NewNop())

	require.NoError(t, wp.Dispatch(context.Background(), dueWheel("w1")))

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "w1", job.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}

	// Queue is full and nobody is consuming.
	require.NoError(t, wp.Dispatch(context.Background(), dueWheel("w2")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wp.Dispatch(ctx, dueWheel("w3")), context.Canceled)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	defer goleak.VerifyNone(t)

	subs := &fakeSubscriptions{byWheel: map[string][]model.PushSubscription{
		"w1": {{Endpoint: "https://example.com/push", P256DH: "p256dh", Auth: "auth"}},
		"w2": {{Endpoint: "https://example.com/expired", P256DH: "p256dh", Auth: "auth"}},
		"w3": {{Endpoint: "https://example.com/unreachable", P256DH: "p256dh", Auth: "auth"}},
	}}
	wp := NewWorkerPool(2, subs, &webpush.Options{}, zap.NewNop())

	sent := make(chan string, 3)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "p256dh", sub.Keys.P256dh)
			sent <- sub.Endpoint + " " + string(payload)
			switch sub.Endpoint {
			case "https://example.com/expired":
				return response(http.StatusGone), nil
			case "https://example.com/unreachable":
				return nil, errors.New("network unreachable")
			default:
				return response(http.StatusCreated), nil
			}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)
	defer func() {
		cancel()
		wp.Wait()
	}()

	expectSent := func(t *testing.T, want string) {
		t.Helper()
		select {
		case got := <-sent:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("notification not sent")
		}
	}

	t.Run("sends reminder to subscription", func(t *testing.T) {
		require.NoError(t, wp.Dispatch(ctx, dueWheel("w1")))
		expectSent(t, "https://example.com/push Wheel 3-1547-2 S/N SN-w1 at LHR rotation due 2024-03-15")
		assert.Empty(t, subs.deletedEndpoints())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		require.NoError(t, wp.Dispatch(ctx, dueWheel("w2")))
		expectSent(t, "https://example.com/expired Wheel 3-1547-2 S/N SN-w2 at LHR rotation due 2024-03-15")
		assert.Eventually(t, func() bool {
			return len(subs.deletedEndpoints()) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"https://example.com/expired"}, subs.deletedEndpoints())
	})

	t.Run("send error keeps subscription", func(t *testing.T) {
		require.NoError(t, wp.Dispatch(ctx, dueWheel("w3")))
		expectSent(t, "https://example.com/unreachable Wheel 3-1547-2 S/N SN-w3 at LHR rotation due 2024-03-15")
		assert.Len(t, subs.deletedEndpoints(), 1)
	})

	t.Run("no subscriptions", func(t *testing.T) {
		require.NoError(t, wp.Dispatch(ctx, dueWheel("w4")))
		select {
		case got := <-sent:
			t.Fatalf("unexpected notification %q", got)
		case <-time.After(50 * time.Millisecond):
		}
	})
}
