package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shopassist/internal/domain/repository"
	"shopassist/pkg/errors"
)

type firestoreSettingsRepository struct {
	client *firestore.Client
}

func NewFirestoreSettingsRepository(client *firestore.Client) repository.SettingsRepository {
	return &firestoreSettingsRepository{
		client: client,
	}
}

func (r *firestoreSettingsRepository) doc(shopID string) *firestore.DocumentRef {
	return r.client.Collection("shops").Doc(shopID).Collection("settings").Doc("widget")
}

func (r *firestoreSettingsRepository) Get(ctx context.Context, shopID string) (map[string]interface{}, error) {
	doc, err := r.doc(shopID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return map[string]interface{}{}, nil
		}
		return nil, errors.Internal("Failed to get widget settings", err)
	}

	return doc.Data(), nil
}

func (r *firestoreSettingsRepository) Set(ctx context.Context, shopID string, values map[string]interface{}) error {
	_, err := r.doc(shopID).Set(ctx, values, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to save widget settings", err)
	}

	return nil
}
