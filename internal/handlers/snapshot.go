package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yliang/taskboard/internal/models"
	"github.com/yliang/taskboard/internal/services"
	"golang.org/x/sync/errgroup"
)

// SnapshotHandler aggregates every collection into one JSON payload. It holds
// no state; every call re-reads storage.
type SnapshotHandler struct {
	todos     *services.TodoStore
	resources *services.CollectionStore
	mailboxes *services.CollectionStore
}

func NewSnapshotHandler(todos *services.TodoStore, resources, mailboxes *services.CollectionStore) *SnapshotHandler {
	return &SnapshotHandler{
		todos:     todos,
		resources: resources,
		mailboxes: mailboxes,
	}
}

// HandleSnapshot reads all collections concurrently, so response latency is
// bounded by the slowest single read.
func (h *SnapshotHandler) HandleSnapshot(c echo.Context) error {
	var todos, resources, mailboxes []models.Item

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		todos, err = h.todos.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		resources, err = h.resources.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		mailboxes, err = h.mailboxes.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, map[string][]models.Item{
		"todos":     todos,
		"resources": resources,
		"mailboxes": mailboxes,
	})
}
