package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yliang/taskboard/internal/models"
	"github.com/yliang/taskboard/internal/services"
)

// mutator is the part of a collection store the id-based intents need. Both
// CollectionStore and TodoStore satisfy it.
type mutator interface {
	Toggle(ctx context.Context, id string) (*models.Item, error)
	Delete(ctx context.Context, id string) error
}

// ActionHandler dispatches form-encoded mutation intents to the collection
// stores.
type ActionHandler struct {
	todos     *services.TodoStore
	resources *services.CollectionStore
	mailboxes *services.CollectionStore
}

func NewActionHandler(todos *services.TodoStore, resources, mailboxes *services.CollectionStore) *ActionHandler {
	return &ActionHandler{
		todos:     todos,
		resources: resources,
		mailboxes: mailboxes,
	}
}

func (h *ActionHandler) HandleAction(c echo.Context) error {
	intent := c.FormValue("intent")
	if intent == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing intent"})
	}

	ctx := c.Request().Context()

	switch intent {
	case "todo_create":
		dueTime, err := parseDueDate(c.FormValue("time"))
		if err != nil {
			return respondMutation(c, err)
		}
		_, err = h.todos.Create(ctx, c.FormValue("text"), dueTime)
		return respondMutation(c, err)

	case "todo_toggle":
		return toggleItem(c, h.todos)

	case "todo_delete":
		return deleteItem(c, h.todos)

	case "resource_create":
		_, err := h.resources.Create(ctx, c.FormValue("text"))
		return respondMutation(c, err)

	case "resource_toggle":
		return toggleItem(c, h.resources)

	case "resource_delete":
		return deleteItem(c, h.resources)

	case "mailbox_create":
		_, err := h.mailboxes.Create(ctx, c.FormValue("text"))
		return respondMutation(c, err)

	case "mailbox_toggle":
		return toggleItem(c, h.mailboxes)

	case "mailbox_delete":
		return deleteItem(c, h.mailboxes)

	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid intent"})
	}
}

func toggleItem(c echo.Context, store mutator) error {
	id := c.FormValue("id")
	if id == "" {
		return respondMutation(c, &services.ValidationError{Message: "Missing id"})
	}

	_, err := store.Toggle(c.Request().Context(), id)
	return respondMutation(c, err)
}

func deleteItem(c echo.Context, store mutator) error {
	id := c.FormValue("id")
	if id == "" {
		return respondMutation(c, &services.ValidationError{Message: "Missing id"})
	}

	return respondMutation(c, store.Delete(c.Request().Context(), id))
}

// respondMutation maps a store error to the mutation response contract:
// validation failures are 400, a toggle on an unknown id is 404, storage
// failures bubble up to echo's error handler.
func respondMutation(c echo.Context, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Message})
	}
	if errors.Is(err, services.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found"})
	}

	return err
}

// parseDueDate turns a YYYY-MM-DD form value into an end-of-day (23:59 local
// time) unix-millisecond deadline.
func parseDueDate(value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, &services.ValidationError{Message: "Due time is required"}
	}

	day, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return 0, &services.ValidationError{Message: "Invalid due time"}
	}

	due := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, time.Local)
	return due.UnixMilli(), nil
}
