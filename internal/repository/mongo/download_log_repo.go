package mongo

import (
	"context"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDownloadLogRepository implements repository.DownloadLogRepository.
// Read-only: the log is appended exclusively by FileRepository.RecordDownload.
type mongoDownloadLogRepository struct {
	collection *mongo.Collection
}

// NewMongoDownloadLogRepository creates a new DownloadLog repository backed by MongoDB.
func NewMongoDownloadLogRepository(db *mongo.Database) repository.DownloadLogRepository {
	return &mongoDownloadLogRepository{
		collection: db.Collection(downloadLogCollectionName),
	}
}

func (r *mongoDownloadLogRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID})
}

func (r *mongoDownloadLogRepository) ListByFile(ctx context.Context, fileID primitive.ObjectID, limit int64) ([]domain.DownloadLogEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "downloadedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"fileId": fileID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.DownloadLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureDownloadLogIndexes creates necessary indexes for the download log.
func EnsureDownloadLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "fileId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "downloadedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
