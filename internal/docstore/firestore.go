package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreBackend is the hosted document store. FIRESTORE_EMULATOR_HOST is
// honored by the client for local runs.
type FirestoreBackend struct {
	client *firestore.Client
}

// NewFirestoreBackend creates a client for projectID through the Firebase app.
// credentialsFile is optional; application default credentials are used otherwise.
func NewFirestoreBackend(ctx context.Context, projectID, credentialsFile string) (*FirestoreBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewFirestoreBackendWithClient(client), nil
}

// NewFirestoreBackendWithClient wraps an existing client.
func NewFirestoreBackendWithClient(client *firestore.Client) *FirestoreBackend {
	return &FirestoreBackend{client: client}
}

func (f *FirestoreBackend) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	col := f.client.Collection(collection)
	if id == "" {
		ref := col.NewDoc()
		if _, err := ref.Create(ctx, data); err != nil {
			return "", mapFirestoreError(err)
		}
		return ref.ID, nil
	}
	if _, err := col.Doc(id).Set(ctx, data); err != nil {
		return "", mapFirestoreError(err)
	}
	return id, nil
}

func (f *FirestoreBackend) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	return snap.Data(), nil
}

func (f *FirestoreBackend) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := f.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields)); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

// Delete succeeds for an absent document; Firestore does not report it.
func (f *FirestoreBackend) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return mapFirestoreError(err)
	}
	return nil
}

func (f *FirestoreBackend) List(ctx context.Context, collection string) ([]Document, error) {
	iter := f.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	docs := []Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapFirestoreError(err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (f *FirestoreBackend) Close() error {
	return f.client.Close()
}

// toUpdates turns a field map into top-level field updates in stable order.
func toUpdates(fields map[string]any) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: fields[k]})
	}
	return updates
}

// mapFirestoreError classifies gRPC status codes into the failure taxonomy.
func mapFirestoreError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists:
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
