package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const noticeCollectionName = "notices"

// mongoNoticeRepository implements repository.NoticeRepository
type mongoNoticeRepository struct {
	collection *mongo.Collection
}

// NewMongoNoticeRepository creates a new Notice repository backed by MongoDB.
func NewMongoNoticeRepository(db *mongo.Database) repository.NoticeRepository {
	return &mongoNoticeRepository{
		collection: db.Collection(noticeCollectionName),
	}
}

func (r *mongoNoticeRepository) Create(ctx context.Context, notice *domain.Notice) (primitive.ObjectID, error) {
	if notice.Title == "" || notice.Content == "" {
		return primitive.NilObjectID, errors.New("notice requires title and content")
	}

	notice.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, notice)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoNoticeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notice, error) {
	var notice domain.Notice
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &notice, nil
}

func (r *mongoNoticeRepository) ListActive(ctx context.Context, course string) ([]domain.Notice, error) {
	filter := bson.M{"isActive": true}
	if course != "" {
		filter["targetCourses"] = course
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notices []domain.Notice
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}

func (r *mongoNoticeRepository) Update(ctx context.Context, notice *domain.Notice) error {
	notice.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": notice.ID}, notice)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureNoticeIndexes creates necessary indexes for the notices collection.
func EnsureNoticeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
