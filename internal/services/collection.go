package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yliang/taskboard/internal/models"
)

// CollectionStore provides read-modify-write access to one JSON-encoded list
// of items stored under a single key. Used as-is for resources and mailboxes;
// TodoStore layers deadline handling on top.
//
// Mutations are unguarded read-then-write cycles over the whole blob: two
// concurrent writers on the same key race, and the later Put overwrites the
// earlier one's effect. Last-write-wins is an accepted trade-off of the
// one-blob-per-collection model, it keeps the KV contract down to plain
// get/put.
type CollectionStore struct {
	kv  KV
	key string
}

func NewCollectionStore(kv KV, key string) *CollectionStore {
	return &CollectionStore{
		kv:  kv,
		key: key,
	}
}

// load returns the raw stored list. A missing or malformed value reads as an
// empty list; storage failures propagate.
func (s *CollectionStore) load(ctx context.Context) ([]models.Item, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}

	return items, nil
}

func (s *CollectionStore) save(ctx context.Context, items []models.Item) error {
	if items == nil {
		items = []models.Item{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %v", s.key, err)
	}

	return s.kv.Put(ctx, s.key, raw)
}

// List returns the whole collection, newest first.
func (s *CollectionStore) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt > items[j].CreatedAt
	})

	return items, nil
}

// Create appends a new item with the given text and persists the full list.
func (s *CollectionStore) Create(ctx context.Context, text string) (*models.Item, error) {
	if text == "" {
		return nil, &ValidationError{Message: "text must not be empty"}
	}

	item := models.Item{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: time.Now().UnixMilli(),
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

// Toggle flips the completed flag of the item with the given id and persists
// the full list. Returns ErrItemNotFound if no item matches.
func (s *CollectionStore) Toggle(ctx context.Context, id string) (*models.Item, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ID == id {
			items[i].Completed = !items[i].Completed
			if err := s.save(ctx, items); err != nil {
				return nil, err
			}
			return &items[i], nil
		}
	}

	return nil, ErrItemNotFound
}

// Delete removes the item with the given id. Deleting an absent id is a
// no-op, not an error.
func (s *CollectionStore) Delete(ctx context.Context, id string) error {
	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := make([]models.Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}

	return s.save(ctx, kept)
}
