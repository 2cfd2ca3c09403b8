package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"
	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubjectHandler holds the subject service dependency.
type SubjectHandler struct {
	subjectService service.SubjectService
}

// NewSubjectHandler creates a new SubjectHandler.
func NewSubjectHandler(subjectService service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

type SubjectRequest struct {
	SubjectName string  `json:"subjectName" binding:"required"`
	SubjectCode string  `json:"subjectCode" binding:"required"`
	Description string  `json:"description"`
	Semester    int     `json:"semester" binding:"required,min=1,max=8"`
	Department  string  `json:"department" binding:"required"`
	FacultyID   *string `json:"facultyId"`
	Credits     int     `json:"credits" binding:"omitempty,min=0"`
}

func (h *SubjectHandler) Create(c *gin.Context) {
	in, ok := bindSubjectInput(c)
	if !ok {
		return
	}

	subject, err := h.subjectService.Create(c.Request.Context(), *in)
	if err != nil {
		mapSubjectError(c, err, "Failed to create subject.")
		return
	}
	c.JSON(http.StatusCreated, subject)
}

// List returns subjects, optionally filtered by semester and department.
func (h *SubjectHandler) List(c *gin.Context) {
	filter := repository.SubjectFilter{Department: c.Query("department")}
	if sem := c.Query("semester"); sem != "" {
		n, err := strconv.Atoi(sem)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid semester filter.")
			return
		}
		filter.Semester = n
	}

	subjects, err := h.subjectService.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list subjects.")
		return
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *SubjectHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	in, ok := bindSubjectInput(c)
	if !ok {
		return
	}

	subject, err := h.subjectService.Update(c.Request.Context(), id, *in)
	if err != nil {
		mapSubjectError(c, err, "Failed to update subject.")
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *SubjectHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.subjectService.Delete(c.Request.Context(), id); err != nil {
		mapSubjectError(c, err, "Failed to delete subject.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted"})
}

func bindSubjectInput(c *gin.Context) (*service.SubjectInput, bool) {
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return nil, false
	}

	in := service.SubjectInput{
		SubjectName: req.SubjectName,
		SubjectCode: req.SubjectCode,
		Description: req.Description,
		Semester:    req.Semester,
		Department:  req.Department,
		Credits:     req.Credits,
	}
	if req.FacultyID != nil && *req.FacultyID != "" {
		facultyID, err := primitive.ObjectIDFromHex(*req.FacultyID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid faculty ID format.")
			return nil, false
		}
		in.FacultyID = &facultyID
	}
	return &in, true
}

func mapSubjectError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSubjectExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSubjectMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSubject):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
