package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin   Role = "Admin"
	RoleHOD     Role = "HOD"
	RoleFaculty Role = "Faculty"
	RoleStudent Role = "Student"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleHOD, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// ReviewerRoles are the roles allowed to see the pending queue and act on files.
var ReviewerRoles = []Role{RoleAdmin, RoleHOD, RoleFaculty}

// Bookmark links a user to a file they saved for later.
type Bookmark struct {
	FileID       primitive.ObjectID `bson:"fileId" json:"fileId"`
	BookmarkedAt time.Time          `bson:"bookmarkedAt" json:"bookmarkedAt"`
}

// User represents an account in the portal (Student, Faculty, HOD or Admin).
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"` // Should be unique
	RegistrationNumber string             `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	PasswordHash       string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role               Role               `bson:"role" json:"role"`
	Department         string             `bson:"department,omitempty" json:"department,omitempty"`
	Semester           int                `bson:"semester,omitempty" json:"semester,omitempty"`
	Course             string             `bson:"course,omitempty" json:"course,omitempty"`
	Bookmarks          []Bookmark         `bson:"bookmarks,omitempty" json:"bookmarks,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsReviewer reports whether the user may see the pending queue at all.
// Whether they may act on a particular file is decided by CanReview.
func (u *User) IsReviewer() bool {
	return u.Role == RoleAdmin || u.Role == RoleHOD || u.Role == RoleFaculty
}

// HasBookmarked reports whether the user already bookmarked the given file.
func (u *User) HasBookmarked(fileID primitive.ObjectID) bool {
	for _, b := range u.Bookmarks {
		if b.FileID == fileID {
			return true
		}
	}
	return false
}
