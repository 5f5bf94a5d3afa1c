package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yliang/taskboard/internal/models"
	"github.com/yliang/taskboard/internal/services"
)

const (
	DefaultPollInterval      = 5 * time.Second
	DefaultHeartbeatInterval = 15 * time.Second
)

// StreamHandler pushes todo snapshots to clients over server-sent events.
//
// Each connection gets one snapshot event on open, then a full todo_update
// every poll interval and a comment heartbeat every heartbeat interval. No
// diffing: every update carries the full current list. One select loop owns
// both tickers and the request context, so cancellation stops everything at
// once.
type StreamHandler struct {
	todos             *services.TodoStore
	pollInterval      time.Duration
	heartbeatInterval time.Duration
}

func NewStreamHandler(todos *services.TodoStore, pollInterval, heartbeatInterval time.Duration) *StreamHandler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	return &StreamHandler{
		todos:             todos,
		pollInterval:      pollInterval,
		heartbeatInterval: heartbeatInterval,
	}
}

type todoPayload struct {
	Todos []models.Item `json:"todos"`
}

func (h *StreamHandler) HandleStream(c echo.Context) error {
	ctx := c.Request().Context()

	// Read the initial snapshot before committing to the stream so a failing
	// store still yields a plain error response.
	todos, err := h.todos.List(ctx)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, "snapshot", todoPayload{Todos: todos}); err != nil {
		return nil
	}

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-heartbeat.C:
			if err := writeComment(res, fmt.Sprintf("ping %d", time.Now().UnixMilli())); err != nil {
				return nil
			}

		case <-poll.C:
			todos, err := h.todos.List(ctx)
			if err != nil {
				// Degrade to stale data rather than dropping the connection.
				log.Printf("Stream poll failed: %v", err)
				continue
			}
			// The read may have raced with a disconnect; never write after
			// cancellation has been observed.
			if ctx.Err() != nil {
				return nil
			}
			if err := writeEvent(res, "todo_update", todoPayload{Todos: todos}); err != nil {
				return nil
			}
		}
	}
}

func writeEvent(res *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}

	res.Flush()
	return nil
}

func writeComment(res *echo.Response, comment string) error {
	if _, err := fmt.Fprintf(res, ": %s\n\n", comment); err != nil {
		return err
	}

	res.Flush()
	return nil
}
