package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yliang/taskboard/internal/models"
)

// TodoStore specializes CollectionStore with deadline handling: listings hide
// expired todos and sort soonest-due-or-oldest-created first, creation
// requires a due time, and Init compacts expired items out of storage.
//
// Toggle and Delete are inherited unchanged and operate on the raw stored
// list, so an expired-but-not-yet-compacted todo can still be toggled or
// deleted by id.
type TodoStore struct {
	CollectionStore
}

func NewTodoStore(kv KV, key string) *TodoStore {
	return &TodoStore{CollectionStore{kv: kv, key: key}}
}

// Init removes todos whose deadline has passed from storage. It writes back
// only when something was removed. Intended to run once per process start,
// not per request; List filters expired items on every read regardless.
func (s *TodoStore) Init(ctx context.Context) error {
	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	kept := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.DueTime == 0 || item.DueTime >= now {
			kept = append(kept, item)
		}
	}

	if len(kept) == len(items) {
		return nil
	}

	return s.save(ctx, kept)
}

// List returns all non-expired todos ordered ascending by due time, falling
// back to creation time for todos without a deadline. Expired items are
// filtered from the result but stay in storage until Init runs.
func (s *TodoStore) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	live := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.DueTime == 0 || item.DueTime >= now {
			live = append(live, item)
		}
	}

	sort.SliceStable(live, func(i, j int) bool {
		return effectiveTime(live[i]) < effectiveTime(live[j])
	})

	return live, nil
}

// Create appends a new todo. A positive due time is mandatory.
func (s *TodoStore) Create(ctx context.Context, text string, dueTime int64) (*models.Item, error) {
	if text == "" {
		return nil, &ValidationError{Message: "text must not be empty"}
	}
	if dueTime <= 0 {
		return nil, &ValidationError{Message: "todo must have a valid due time"}
	}

	item := models.Item{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: time.Now().UnixMilli(),
		DueTime:   dueTime,
	}

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	items = append(items, item)
	if err := s.save(ctx, items); err != nil {
		return nil, err
	}

	return &item, nil
}

func effectiveTime(item models.Item) int64 {
	if item.DueTime != 0 {
		return item.DueTime
	}
	return item.CreatedAt
}
