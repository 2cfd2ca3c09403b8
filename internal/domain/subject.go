package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject is a course subject files are attached to.
type Subject struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SubjectName string              `bson:"subjectName" json:"subjectName"` // Unique
	SubjectCode string              `bson:"subjectCode" json:"subjectCode"` // Unique, uppercase
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Semester    int                 `bson:"semester" json:"semester"` // 1-8
	Department  string              `bson:"department" json:"department"`
	FacultyID   *primitive.ObjectID `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Credits     int                 `bson:"credits,omitempty" json:"credits,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}
