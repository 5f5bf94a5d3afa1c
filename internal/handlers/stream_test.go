package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yliang/taskboard/internal/handlers"
	"github.com/yliang/taskboard/internal/services"
)

// runStream runs the handler against a cancellable request and returns the
// recorder plus a channel that yields the handler's return value.
func runStream(t *testing.T, handler *handlers.StreamHandler) (*httptest.ResponseRecorder, context.CancelFunc, chan error) {
	t.Helper()
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	done := make(chan error, 1)
	go func() {
		done <- handler.HandleStream(c)
	}()

	return rec, cancel, done
}

func waitStopped(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestStream_SnapshotThenUpdatesThenCancel(t *testing.T) {
	fix := newFixture()
	_, err := fix.todos.Create(context.Background(), "stream me", time.Now().UnixMilli()+60_000)
	require.NoError(t, err)

	handler := handlers.NewStreamHandler(fix.todos, 20*time.Millisecond, 35*time.Millisecond)
	rec, cancel, done := runStream(t, handler)

	// A few poll ticks and at least one heartbeat.
	time.Sleep(120 * time.Millisecond)
	cancel()
	waitStopped(t, done)

	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: snapshot\n"), "first frame must be the snapshot")
	assert.Contains(t, body, `"todos":[{`)
	assert.Contains(t, body, "stream me")
	assert.Contains(t, body, "event: todo_update\n")
	assert.Contains(t, body, ": ping ")
}

func TestStream_NoFramesAfterCancellation(t *testing.T) {
	fix := newFixture()
	handler := handlers.NewStreamHandler(fix.todos, 20*time.Millisecond, time.Hour)
	rec, cancel, done := runStream(t, handler)

	time.Sleep(50 * time.Millisecond)
	cancel()
	waitStopped(t, done)

	length := rec.Body.Len()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, length, rec.Body.Len(), "no frames may be written after cancellation")
}

// flakyKV starts failing reads on demand.
type flakyKV struct {
	*services.MemoryKV
	failing atomic.Bool
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failing.Load() {
		return nil, context.DeadlineExceeded
	}
	return f.MemoryKV.Get(ctx, key)
}

func TestStream_PollFailureKeepsConnectionOpen(t *testing.T) {
	kv := &flakyKV{MemoryKV: services.NewMemoryKV()}
	todos := services.NewTodoStore(kv, "todos")
	handler := handlers.NewStreamHandler(todos, 20*time.Millisecond, time.Hour)

	rec, cancel, done := runStream(t, handler)

	// Let the initial snapshot through, then fail every subsequent read.
	time.Sleep(30 * time.Millisecond)
	kv.failing.Store(true)

	// Several failing poll ticks must not terminate the stream.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("stream terminated on a poll read failure")
	default:
	}

	cancel()
	waitStopped(t, done)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: snapshot\n"))
}
