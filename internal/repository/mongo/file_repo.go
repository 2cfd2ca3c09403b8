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

const (
	fileCollectionName        = "files"
	downloadLogCollectionName = "download_logs"
)

// mongoFileRepository implements repository.FileRepository. It owns both the
// files collection and the download log so RecordDownload can couple the
// counter increment and the audit append in one transaction.
type mongoFileRepository struct {
	collection *mongo.Collection
	logs       *mongo.Collection
}

// NewMongoFileRepository creates a new File repository backed by MongoDB.
func NewMongoFileRepository(db *mongo.Database) repository.FileRepository {
	return &mongoFileRepository{
		collection: db.Collection(fileCollectionName),
		logs:       db.Collection(downloadLogCollectionName),
	}
}

// Create inserts a new file document.
func (r *mongoFileRepository) Create(ctx context.Context, file *domain.File) (primitive.ObjectID, error) {
	if file.Title == "" || len(file.SubjectIDs) == 0 || file.UploadedBy.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("file requires title, subjectIds and uploadedBy")
	}

	file.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	file.CreatedAt = now
	file.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoFileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.File, error) {
	var file domain.File
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *mongoFileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error) {
	if len(ids) == 0 {
		return []domain.File{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// Update replaces the stored file document. The file is the unit of mutation;
// no optimistic concurrency token is applied and the last write wins.
func (r *mongoFileRepository) Update(ctx context.Context, file *domain.File) error {
	file.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": file.ID}, file)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListApproved returns approved files matching the filter, newest first.
func (r *mongoFileRepository) ListApproved(ctx context.Context, filter repository.FileFilter) ([]domain.File, error) {
	query := bson.M{"status": domain.StatusApproved}
	if filter.FileType != "" {
		query["fileType"] = filter.FileType
	}
	if filter.Semester != 0 {
		query["semester"] = filter.Semester
	}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if filter.Search != "" {
		query["title"] = bson.M{"$regex": primitive.Regex{Pattern: regexQuoteMeta(filter.Search), Options: "i"}}
	}
	return r.findMany(ctx, query, newestFirst())
}

func (r *mongoFileRepository) ListByStatus(ctx context.Context, status domain.FileStatus) ([]domain.File, error) {
	return r.findMany(ctx, bson.M{"status": status}, newestFirst())
}

func (r *mongoFileRepository) ListByUploader(ctx context.Context, uploaderID primitive.ObjectID) ([]domain.File, error) {
	return r.findMany(ctx, bson.M{"uploadedBy.userId": uploaderID}, newestFirst())
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *mongoFileRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.File, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []domain.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// RecordDownload couples the counter increment and the audit-log append in a
// single transaction so a crash between the two cannot under- or over-count.
// The status guard is part of the update filter: a missing file and an
// unapproved file both surface as ErrNotFound.
func (r *mongoFileRepository) RecordDownload(ctx context.Context, fileID, userID primitive.ObjectID) (*domain.File, error) {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var file domain.File
		err := r.collection.FindOneAndUpdate(sc,
			bson.M{"_id": fileID, "status": domain.StatusApproved},
			bson.M{
				"$inc": bson.M{"downloadsCount": 1},
				"$set": bson.M{"updatedAt": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&file)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, repository.ErrNotFound
			}
			return nil, err
		}

		entry := domain.DownloadLogEntry{
			ID:           primitive.NewObjectID(),
			FileID:       fileID,
			UserID:       userID,
			DownloadedAt: time.Now().UTC(),
		}
		if _, err := r.logs.InsertOne(sc, entry); err != nil {
			return nil, err
		}
		return &file, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.File), nil
}

// === Analytics ===

// CountByStatus counts files in the given status; an empty status counts all.
func (r *mongoFileRepository) CountByStatus(ctx context.Context, status domain.FileStatus) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoFileRepository) CountByUploader(ctx context.Context, uploaderID primitive.ObjectID, status domain.FileStatus) (int64, error) {
	filter := bson.M{"uploadedBy.userId": uploaderID}
	if status != "" {
		filter["status"] = status
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoFileRepository) SumDownloadsByUploader(ctx context.Context, uploaderID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"uploadedBy.userId": uploaderID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$downloadsCount"}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *mongoFileRepository) CountRatedBy(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"ratings.studentId": studentID})
}

func (r *mongoFileRepository) MostDownloaded(ctx context.Context, limit int64) ([]domain.File, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "downloadsCount", Value: -1}}).
		SetLimit(limit)
	return r.findMany(ctx, bson.M{"status": domain.StatusApproved}, opts)
}

func (r *mongoFileRepository) TopUploaders(ctx context.Context, limit int64) ([]repository.UploaderStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         "$uploadedBy.userId",
			"userName":    bson.M{"$first": "$uploadedBy.userName"},
			"uploadCount": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"uploadCount": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []repository.UploaderStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *mongoFileRepository) CountByType(ctx context.Context) ([]repository.TypeCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$fileType", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []repository.TypeCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *mongoFileRepository) UploadsPerDay(ctx context.Context, since time.Time) ([]repository.DayCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []repository.DayCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// regexQuoteMeta escapes regex metacharacters so user-provided search terms
// are matched literally.
func regexQuoteMeta(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(meta); j++ {
			if s[i] == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

// EnsureFileIndexes creates necessary indexes for the files collection.
func EnsureFileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "fileType", Value: 1}, {Key: "semester", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "subjectIds", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "uploadedBy.userId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
