package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DownloadLogEntry is one append-only audit record of a successful download.
// Entries are never mutated or deleted.
type DownloadLogEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileID       primitive.ObjectID `bson:"fileId" json:"fileId"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	DownloadedAt time.Time          `bson:"downloadedAt" json:"downloadedAt"`
}
