package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/api"
	"wheel-rotation-backend/internal/db"
	"wheel-rotation-backend/internal/events"
	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/reminder"
	"wheel-rotation-backend/internal/store"
	"wheel-rotation-backend/internal/wheel"
)

type captureDispatcher struct {
	wheels []model.WheelRotation
}

func (d *captureDispatcher) Dispatch(_ context.Context, w model.WheelRotation) error {
	d.wheels = append(d.wheels, w)
	return nil
}

// TestRotationLifecycle registers a wheel over HTTP, rotates it twice, and
// verifies the database state, the event stream and the reminder scan.
func TestRotationLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// --- Test Setup ---

	// 1. In-memory SQLite database with the full schema.
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:lifecycle?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.RequirePermissions = true

	gormDB, err := db.Init(&cfg.Database, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()
	appStore := store.NewGormStore(gormDB)

	// 2. Redis stream for rotation events.
	mr := miniredis.RunT(t)
	client := events.NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	publisher := events.NewRedisPublisher(client, cfg.Redis.Stream, 100)

	// 3. Wheel service on a fixed clock, routed the way the server does it.
	day := time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)
	svc := wheel.NewService(appStore, zap.NewNop(),
		wheel.WithClock(func() time.Time { return day }),
		wheel.WithPublisher(publisher))
	router := api.NewRouter(api.NewHandler(svc, appStore, cfg, zap.NewNop()), cfg.Server)

	do := func(method, path, user string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if user != "" {
			req.Header.Set("X-User-Id", user)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// --- Scenario ---

	// 4. An engineer without write access cannot register wheels.
	create := map[string]any{
		"arrivalDate":       "2024-02-01",
		"station":           "LHR",
		"airline":           "BA",
		"wheelPartNumber":   "3-1547-2",
		"wheelSerialNumber": "SN-1001",
		"rotationFrequency": "weekly",
	}
	w := do(http.MethodPost, "/api/wheel-rotation", "eng-1", create)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, appStore.SetPermissions(context.Background(), "eng-1", map[string]bool{
		"wheel_rotation:write": true,
	}))

	// 5. Register the wheel.
	w = do(http.MethodPost, "/api/wheel-rotation", "eng-1", create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "unscheduled", created.Status)

	// 6. First rotation.
	w = do(http.MethodPost, "/api/wheel-rotation/"+created.ID+"/rotate", "eng-1", map[string]any{"newPosition": 90})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	dbWheel, err := appStore.GetWheel(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 90, dbWheel.CurrentPosition)
	require.NotNil(t, dbWheel.NextRotationDue)
	assert.Equal(t, time.Date(2024, 2, 22, 9, 0, 0, 0, time.UTC), dbWheel.NextRotationDue.UTC())

	// 7. A week later the wheel is rotated again.
	day = day.AddDate(0, 0, 7)
	w = do(http.MethodPost, "/api/wheel-rotation/"+created.ID+"/rotate", "eng-1", map[string]any{"newPosition": 180, "notes": "tread check ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	history, err := appStore.ListHistory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0, history[0].PreviousPosition)
	assert.Equal(t, 90, history[0].NewPosition)
	assert.Equal(t, 90, history[1].PreviousPosition)
	assert.Equal(t, 180, history[1].NewPosition)
	assert.Equal(t, "eng-1", history[1].PerformedBy)

	// 8. Both rotations reached the event stream in order.
	entries, err := client.XRange(context.Background(), cfg.Redis.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].Values["sequence"])
	assert.Equal(t, "180", entries[1].Values["new_position"])
	assert.Equal(t, "2024-02-29T09:00:00Z", entries[1].Values["next_rotation_due"])

	// 9. The reminder scan queues the overdue wheel exactly once.
	dispatcher := &captureDispatcher{}
	scanner := reminder.NewService(cfg.Reminder, appStore, dispatcher, zap.NewNop())
	assert.Equal(t, 1, scanner.ScanOnce(context.Background()))
	assert.Equal(t, 0, scanner.ScanOnce(context.Background()))
	require.Len(t, dispatcher.wheels, 1)
	assert.Equal(t, created.ID, dispatcher.wheels[0].ID)

	// 10. Subscribers of the wheel are found for delivery.
	w = do(http.MethodPut, "/api/subscriptions", "", map[string]any{
		"endpoint":          "https://push.example.com/abc",
		"p256dh":            "key",
		"auth":              "secret",
		"subscribed_wheels": []string{created.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subs, err := appStore.SubscriptionsForWheel(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example.com/abc", subs[0].Endpoint)

	// 11. Deleting needs the delete capability and removes its history.
	w = do(http.MethodDelete, "/api/wheel-rotation/"+created.ID, "eng-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NoError(t, appStore.SetPermissions(context.Background(), "eng-1", map[string]bool{
		"wheel_rotation:write":  true,
		"wheel_rotation:delete": true,
	}))
	w = do(http.MethodDelete, "/api/wheel-rotation/"+created.ID, "eng-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = appStore.ListHistory(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	w = do(http.MethodGet, "/api/wheel-rotation/"+created.ID, "eng-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
