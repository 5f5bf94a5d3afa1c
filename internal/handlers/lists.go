package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yliang/taskboard/internal/models"
	"github.com/yliang/taskboard/internal/services"
)

// tenantKeyPrefix namespaces per-tenant todo collections away from the shared
// "todos" key.
const tenantKeyPrefix = "todos:"

// ListsHandler serves per-tenant todo lists. Each list id maps to its own
// storage key, so tenants never touch each other's collections.
type ListsHandler struct {
	kv services.KV
}

func NewListsHandler(kv services.KV) *ListsHandler {
	return &ListsHandler{kv: kv}
}

func (h *ListsHandler) store(id string) *services.TodoStore {
	return services.NewTodoStore(h.kv, tenantKeyPrefix+id)
}

// HandleIndex returns the ids of all tenant lists that have been written to.
func (h *ListsHandler) HandleIndex(c echo.Context) error {
	keys, err := h.kv.Keys(c.Request().Context(), tenantKeyPrefix)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, tenantKeyPrefix))
	}

	return c.JSON(http.StatusOK, map[string][]string{"lists": ids})
}

// HandleList returns the snapshot of one tenant's todo list.
func (h *ListsHandler) HandleList(c echo.Context) error {
	todos, err := h.store(c.Param("id")).List(c.Request().Context())
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, map[string][]models.Item{"todos": todos})
}

// HandleAction dispatches create/toggle/delete intents against one tenant's
// todo list. The same due-date rule applies as on the shared list: a todo
// cannot be created without one.
func (h *ListsHandler) HandleAction(c echo.Context) error {
	store := h.store(c.Param("id"))
	ctx := c.Request().Context()

	switch c.FormValue("intent") {
	case "create":
		dueTime, err := parseDueDate(c.FormValue("time"))
		if err != nil {
			return respondMutation(c, err)
		}
		_, err = store.Create(ctx, c.FormValue("text"), dueTime)
		return respondMutation(c, err)

	case "toggle":
		return toggleItem(c, store)

	case "delete":
		return deleteItem(c, store)

	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid intent"})
	}
}
