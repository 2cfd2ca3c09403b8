package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanReview(t *testing.T) {
	tests := []struct {
		name         string
		reviewerRole Role
		uploaderRole Role
		want         bool
	}{
		{"admin reviews student upload", RoleAdmin, RoleStudent, true},
		{"admin reviews faculty upload", RoleAdmin, RoleFaculty, true},
		{"admin reviews hod upload", RoleAdmin, RoleHOD, true},
		{"hod reviews student upload", RoleHOD, RoleStudent, true},
		{"hod reviews faculty upload", RoleHOD, RoleFaculty, false},
		{"faculty reviews student upload", RoleFaculty, RoleStudent, true},
		{"faculty reviews hod upload", RoleFaculty, RoleHOD, false},
		{"student reviews student upload", RoleStudent, RoleStudent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReview(tt.reviewerRole, tt.uploaderRole))
		})
	}
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus(RoleStudent))
	assert.Equal(t, StatusApproved, InitialStatus(RoleFaculty))
	assert.Equal(t, StatusApproved, InitialStatus(RoleHOD))
	assert.Equal(t, StatusApproved, InitialStatus(RoleAdmin))
}

func TestAppendVersion_ResetsReviewState(t *testing.T) {
	reviewerID := primitive.NewObjectID()
	now := time.Now().UTC()

	f := &File{
		Status:         StatusApproved,
		CurrentVersion: 1,
		Versions:       []Version{{VersionNumber: 1, ObjectKey: "k1"}},
		ApprovedAt:     &now,
		ApprovedBy:     &reviewerID,
	}

	f.AppendVersion(Version{ObjectKey: "k2", VersionNumber: 99}) // number is overwritten

	assert.Equal(t, 2, f.CurrentVersion)
	assert.Len(t, f.Versions, 2)
	assert.Equal(t, 2, f.Versions[1].VersionNumber)
	assert.Equal(t, StatusPending, f.Status)
	assert.Nil(t, f.ApprovedAt)
	assert.Nil(t, f.ApprovedBy)
	assert.Empty(t, f.RejectionReason)
}

func TestAppendVersion_ClearsRejectionReason(t *testing.T) {
	f := &File{
		Status:          StatusRejected,
		RejectionReason: "blurry scan",
		CurrentVersion:  1,
		Versions:        []Version{{VersionNumber: 1}},
	}

	f.AppendVersion(Version{ObjectKey: "k2"})

	assert.Equal(t, StatusPending, f.Status)
	assert.Empty(t, f.RejectionReason)
}

func TestMarkApproved_ClearsRejectionReason(t *testing.T) {
	f := &File{Status: StatusRejected, RejectionReason: "wrong subject"}
	reviewerID := primitive.NewObjectID()
	now := time.Now().UTC()

	f.MarkApproved(reviewerID, now)

	assert.Equal(t, StatusApproved, f.Status)
	assert.Empty(t, f.RejectionReason)
	assert.Equal(t, now, *f.ApprovedAt)
	assert.Equal(t, reviewerID, *f.ApprovedBy)
}

func TestMarkRejected_ClearsApprovalMetadata(t *testing.T) {
	reviewerID := primitive.NewObjectID()
	now := time.Now().UTC()
	f := &File{Status: StatusApproved, ApprovedAt: &now, ApprovedBy: &reviewerID}

	f.MarkRejected("outdated content")

	assert.Equal(t, StatusRejected, f.Status)
	assert.Equal(t, "outdated content", f.RejectionReason)
	assert.Nil(t, f.ApprovedAt)
	assert.Nil(t, f.ApprovedBy)
}

func TestUpsertRating_AverageRoundsToOneDecimal(t *testing.T) {
	f := &File{}
	now := time.Now().UTC()

	f.UpsertRating(primitive.NewObjectID(), 5, "", now)
	f.UpsertRating(primitive.NewObjectID(), 3, "", now)
	f.UpsertRating(primitive.NewObjectID(), 4, "", now)
	assert.Equal(t, 4.0, f.AverageRating)

	f2 := &File{}
	f2.UpsertRating(primitive.NewObjectID(), 5, "", now)
	f2.UpsertRating(primitive.NewObjectID(), 4, "", now)
	assert.Equal(t, 4.5, f2.AverageRating)

	f3 := &File{}
	f3.UpsertRating(primitive.NewObjectID(), 5, "", now)
	f3.UpsertRating(primitive.NewObjectID(), 5, "", now)
	f3.UpsertRating(primitive.NewObjectID(), 4, "", now)
	// 14/3 = 4.666... -> 4.7
	assert.Equal(t, 4.7, f3.AverageRating)
}

func TestUpsertRating_OverwritesSameStudent(t *testing.T) {
	f := &File{}
	studentID := primitive.NewObjectID()
	now := time.Now().UTC()

	f.UpsertRating(studentID, 2, "meh", now)
	f.UpsertRating(studentID, 5, "much better after v2", now)

	assert.Len(t, f.Ratings, 1)
	assert.Equal(t, 5, f.Ratings[0].Rating)
	assert.Equal(t, "much better after v2", f.Ratings[0].Feedback)
	assert.Equal(t, 5.0, f.AverageRating)
}

func TestCurrentArtifact(t *testing.T) {
	f := &File{
		CurrentVersion: 2,
		Versions: []Version{
			{VersionNumber: 1, ObjectKey: "k1"},
			{VersionNumber: 2, ObjectKey: "k2"},
		},
	}
	v := f.CurrentArtifact()
	assert.NotNil(t, v)
	assert.Equal(t, "k2", v.ObjectKey)

	empty := &File{}
	assert.Nil(t, empty.CurrentArtifact())

	inconsistent := &File{CurrentVersion: 3, Versions: []Version{{VersionNumber: 1}}}
	assert.Nil(t, inconsistent.CurrentArtifact())
}
