// Package notification pushes rotation-due reminders to browser subscriptions.
package notification

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/store"
)

// NotificationSender sends one web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through webpush-go.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Message is the reminder text for w.
func Message(w model.WheelRotation) string {
	due := "unscheduled"
	if w.NextRotationDue != nil {
		due = w.NextRotationDue.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("Wheel %s S/N %s at %s rotation due %s",
		w.WheelPartNumber, w.WheelSerialNumber, w.Station, due)
}

// WorkerPool sends due reminders on a fixed number of goroutines.
type WorkerPool struct {
	size    int
	jobs    chan model.WheelRotation
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a worker pool. It does nothing until Start.
func NewWorkerPool(size int, subs store.SubscriptionStore, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.WheelRotation, size),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the workers. They exit when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case wheel := <-wp.jobs:
			wp.sendReminders(ctx, wheel)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a reminder for wheel. It blocks while the queue is full
// and returns ctx.Err() if ctx ends first.
func (wp *WorkerPool) Dispatch(ctx context.Context, wheel model.WheelRotation) error {
	select {
	case wp.jobs <- wheel:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) sendReminders(ctx context.Context, wheel model.WheelRotation) {
	subscriptions, err := wp.subs.SubscriptionsForWheel(ctx, wheel.ID)
	if err != nil {
		wp.log.Error("failed to fetch subscriptions", zap.String("wheel_id", wheel.ID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	wp.log.Info("sending rotation reminders",
		zap.String("wheel_id", wheel.ID), zap.Int("subscriptions", len(subscriptions)))

	payload := []byte(Message(wheel))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
