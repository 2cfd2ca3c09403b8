package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileType classifies the kind of course material. Closed set, immutable
// after creation.
type FileType string

const (
	FileTypeNotes      FileType = "Notes"
	FileTypeAssignment FileType = "Assignment"
	FileTypePYQ        FileType = "PYQ"
	FileTypeCircular   FileType = "Circular"
)

// ValidFileType reports whether t is one of the accepted file types.
func ValidFileType(t FileType) bool {
	switch t {
	case FileTypeNotes, FileTypeAssignment, FileTypePYQ, FileTypeCircular:
		return true
	}
	return false
}

// FileStatus is the review state of a file. None of the states is terminal:
// a rejected or approved file re-enters Pending when a new version is uploaded.
type FileStatus string

const (
	StatusPending  FileStatus = "Pending"
	StatusApproved FileStatus = "Approved"
	StatusRejected FileStatus = "Rejected"
)

// UploaderRef is a denormalized reference to the uploading user. UserName is a
// snapshot taken at upload time and does not track later name changes.
type UploaderRef struct {
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	UserName string             `bson:"userName" json:"userName"`
}

// Version is one entry of a file's append-only version history. The binary
// artifact itself lives in object storage under ObjectKey.
type Version struct {
	VersionNumber int                `bson:"versionNumber" json:"versionNumber"`
	ObjectKey     string             `bson:"objectKey" json:"-"`
	FileName      string             `bson:"fileName" json:"fileName"`
	ContentType   string             `bson:"contentType" json:"contentType"`
	FileSize      int64              `bson:"fileSize" json:"fileSize"`
	UploadedAt    time.Time          `bson:"uploadedAt" json:"uploadedAt"`
	UpdatedBy     primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
}

// Rating is a single student's rating of a file. At most one per student;
// repeated rate calls overwrite in place.
type Rating struct {
	StudentID primitive.ObjectID `bson:"studentId" json:"studentId"`
	Rating    int                `bson:"rating" json:"rating"`
	Feedback  string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	RatedAt   time.Time          `bson:"ratedAt" json:"ratedAt"`
}

// File is the central entity of the portal: an uploaded course material with
// its review state, version history, ratings and download counter.
type File struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	SubjectIDs      []primitive.ObjectID `bson:"subjectIds" json:"subjectIds"`
	UploadedBy      UploaderRef          `bson:"uploadedBy" json:"uploadedBy"`
	FileType        FileType             `bson:"fileType" json:"fileType"`
	Status          FileStatus           `bson:"status" json:"status"`
	RejectionReason string               `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	Versions        []Version            `bson:"versions" json:"versions"`
	CurrentVersion  int                  `bson:"currentVersion" json:"currentVersion"`
	Ratings         []Rating             `bson:"ratings,omitempty" json:"ratings,omitempty"`
	AverageRating   float64              `bson:"averageRating" json:"averageRating"`
	DownloadsCount  int64                `bson:"downloadsCount" json:"downloadsCount"`
	Semester        int                  `bson:"semester,omitempty" json:"semester,omitempty"`
	Department      string               `bson:"department,omitempty" json:"department,omitempty"`
	Tags            []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	ApprovedAt      *time.Time           `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ApprovedBy      *primitive.ObjectID  `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CanReview is the single authority rule shared by approve and reject:
// an Admin may act on any file, an HOD or Faculty only on student uploads.
func CanReview(reviewerRole, uploaderRole Role) bool {
	switch reviewerRole {
	case RoleAdmin:
		return true
	case RoleHOD, RoleFaculty:
		return uploaderRole == RoleStudent
	default:
		return false
	}
}

// InitialStatus returns the review state a fresh upload starts in: reviewer
// roles are trusted and auto-approved, student uploads wait for review.
func InitialStatus(uploaderRole Role) FileStatus {
	if uploaderRole == RoleFaculty || uploaderRole == RoleHOD || uploaderRole == RoleAdmin {
		return StatusApproved
	}
	return StatusPending
}

// CurrentArtifact returns the version record CurrentVersion points at,
// or nil if the history is empty or inconsistent.
func (f *File) CurrentArtifact() *Version {
	if f.CurrentVersion < 1 || f.CurrentVersion > len(f.Versions) {
		return nil
	}
	return &f.Versions[f.CurrentVersion-1]
}

// AppendVersion appends a new entry to the version history, advances
// CurrentVersion and resets the file to Pending for re-approval. The version
// number is always the previous CurrentVersion + 1; any value on v is
// overwritten. Approval metadata and rejection reason are cleared together
// with the reset so no stale review state survives the transition.
func (f *File) AppendVersion(v Version) {
	v.VersionNumber = f.CurrentVersion + 1
	f.Versions = append(f.Versions, v)
	f.CurrentVersion = v.VersionNumber
	f.resetToPending()
}

func (f *File) resetToPending() {
	f.Status = StatusPending
	f.RejectionReason = ""
	f.ApprovedAt = nil
	f.ApprovedBy = nil
}

// MarkApproved transitions the file to Approved and records who approved it
// and when. A leftover rejection reason from an earlier review round is
// cleared so the two never coexist.
func (f *File) MarkApproved(reviewerID primitive.ObjectID, now time.Time) {
	f.Status = StatusApproved
	f.ApprovedAt = &now
	f.ApprovedBy = &reviewerID
	f.RejectionReason = ""
}

// MarkRejected transitions the file to Rejected with the reviewer's reason.
func (f *File) MarkRejected(reason string) {
	f.Status = StatusRejected
	f.RejectionReason = reason
	f.ApprovedAt = nil
	f.ApprovedBy = nil
}

// UpsertRating inserts or overwrites the rating for the given student and
// recomputes the average. Exactly one rating per student is kept.
func (f *File) UpsertRating(studentID primitive.ObjectID, rating int, feedback string, now time.Time) {
	for i := range f.Ratings {
		if f.Ratings[i].StudentID == studentID {
			f.Ratings[i].Rating = rating
			f.Ratings[i].Feedback = feedback
			f.Ratings[i].RatedAt = now
			f.recomputeAverageRating()
			return
		}
	}
	f.Ratings = append(f.Ratings, Rating{
		StudentID: studentID,
		Rating:    rating,
		Feedback:  feedback,
		RatedAt:   now,
	})
	f.recomputeAverageRating()
}

// recomputeAverageRating derives AverageRating as the mean of all ratings,
// rounded to one decimal place. Zero when no ratings exist. The one-decimal
// precision is externally observable via the API and therefore part of the
// contract.
func (f *File) recomputeAverageRating() {
	if len(f.Ratings) == 0 {
		f.AverageRating = 0
		return
	}
	var sum int
	for _, r := range f.Ratings {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(f.Ratings))
	f.AverageRating = math.Round(avg*10) / 10
}
