package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// kvDoc is the Firestore document layout: one document per storage key,
// holding the serialized collection blob.
type kvDoc struct {
	Value []byte `firestore:"value"`
}

// FirestoreKV implements KV on top of a single Firestore collection.
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreKV(projectID, collection string) (*FirestoreKV, error) {
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %v", err)
	}

	return &FirestoreKV{
		client:     client,
		collection: collection,
	}, nil
}

func (fs *FirestoreKV) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreKV) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := fs.client.Collection(fs.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %v", key, err)
	}

	var doc kvDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key %s: %v", key, err)
	}

	return doc.Value, nil
}

func (fs *FirestoreKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := fs.client.Collection(fs.collection).Doc(key).Set(ctx, kvDoc{Value: value})
	if err != nil {
		return fmt.Errorf("failed to write key %s: %v", key, err)
	}

	return nil
}

func (fs *FirestoreKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	iter := fs.client.Collection(fs.collection).Documents(ctx)
	defer iter.Stop()

	var keys []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate keys: %v", err)
		}

		if strings.HasPrefix(doc.Ref.ID, prefix) {
			keys = append(keys, doc.Ref.ID)
		}
	}

	return keys, nil
}
