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

const subjectCollectionName = "subjects"

// mongoSubjectRepository implements repository.SubjectRepository
type mongoSubjectRepository struct {
	collection *mongo.Collection
}

// NewMongoSubjectRepository creates a new Subject repository backed by MongoDB.
func NewMongoSubjectRepository(db *mongo.Database) repository.SubjectRepository {
	return &mongoSubjectRepository{
		collection: db.Collection(subjectCollectionName),
	}
}

func (r *mongoSubjectRepository) Create(ctx context.Context, subject *domain.Subject) (primitive.ObjectID, error) {
	if subject.SubjectName == "" || subject.SubjectCode == "" {
		return primitive.NilObjectID, errors.New("subject requires name and code")
	}

	subject.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, subject)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoSubjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subject, error) {
	var subject domain.Subject
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&subject)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

func (r *mongoSubjectRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Subject, error) {
	if len(ids) == 0 {
		return []domain.Subject{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subjects []domain.Subject
	if err := cursor.All(ctx, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *mongoSubjectRepository) List(ctx context.Context, filter repository.SubjectFilter) ([]domain.Subject, error) {
	query := bson.M{}
	if filter.Semester != 0 {
		query["semester"] = filter.Semester
	}
	if filter.Department != "" {
		query["department"] = filter.Department
	}

	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subjects []domain.Subject
	if err := cursor.All(ctx, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *mongoSubjectRepository) Update(ctx context.Context, subject *domain.Subject) error {
	subject.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": subject.ID}, subject)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSubjectRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSubjectIndexes creates necessary indexes for the subjects collection.
func EnsureSubjectIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subjectName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "subjectCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "semester", Value: 1}, {Key: "department", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
