package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is a broadcast announcement, optionally with attachments stored in
// object storage. Notices are deactivated rather than deleted.
type Notice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content" json:"content"`
	AuthorID      primitive.ObjectID `bson:"author" json:"author"`
	TargetCourses []string           `bson:"targetCourses,omitempty" json:"targetCourses,omitempty"`
	Attachments   []string           `bson:"attachments,omitempty" json:"attachments,omitempty"` // object storage keys
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
