package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationFilePending  NotificationType = "file_pending"
	NotificationFileApproved NotificationType = "file_approved"
	NotificationFileRejected NotificationType = "file_rejected"
	NotificationFileRated    NotificationType = "file_rated"
	NotificationNewSubject   NotificationType = "new_subject"
	NotificationAnnouncement NotificationType = "announcement"
)

// Notification is a single in-app message for one user. Created by the
// dispatcher as a side effect of lifecycle transitions; never blocks them.
type Notification struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	Title         string              `bson:"title" json:"title"`
	Message       string              `bson:"message" json:"message"`
	Type          NotificationType    `bson:"type" json:"type"`
	RelatedFileID *primitive.ObjectID `bson:"relatedFileId,omitempty" json:"relatedFileId,omitempty"`
	IsRead        bool                `bson:"isRead" json:"isRead"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}
