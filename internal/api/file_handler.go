package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/repository"
	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// allowedExtensions is the closed set of artifact types accepted at the
// upload boundary.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// FileHandler holds the file lifecycle service dependency.
type FileHandler struct {
	fileService service.FileService
	maxFileSize int64
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileService service.FileService, maxFileSize int64) *FileHandler {
	return &FileHandler{fileService: fileService, maxFileSize: maxFileSize}
}

// --- Request/Response Structs ---

// UploadFileRequest binds the non-file fields of the multipart upload form.
// Subject references arrive as a repeated "subjectIds" field.
type UploadFileRequest struct {
	Title       string   `form:"title" binding:"required"`
	Description string   `form:"description"`
	SubjectIDs  []string `form:"subjectIds" binding:"required"`
	FileType    string   `form:"fileType" binding:"required"`
	Semester    int      `form:"semester" binding:"omitempty,min=1,max=8"`
	Department  string   `form:"department"`
	Tags        []string `form:"tags"`
}

type RejectFileRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RateFileRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

// --- Handler Methods ---

// Upload godoc
// @Summary Upload a new file
// @Description Stores the artifact and creates a file document. Student
// @Description uploads start Pending; Faculty/HOD/Admin uploads are
// @Description auto-approved.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.File "File created"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 413 {object} gin.H "Artifact too large"
// @Router /files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	uploaderID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	artifact, status, err := h.openArtifact(c)
	if err != nil {
		abortWithError(c, status, err.Error())
		return
	}
	defer artifact.close()

	file, err := h.fileService.Upload(c.Request.Context(), uploaderID, service.UploadInput{
		Title:       req.Title,
		Description: req.Description,
		SubjectIDs:  req.SubjectIDs,
		FileType:    req.FileType,
		Semester:    req.Semester,
		Department:  req.Department,
		Tags:        req.Tags,
		Artifact:    &artifact.Artifact,
	})
	if err != nil {
		h.mapFileError(c, err, "Failed to upload file.")
		return
	}

	c.JSON(http.StatusCreated, file)
}

// UpdateVersion appends a new version to a file owned by the caller and
// resets it to Pending.
func (h *FileHandler) UpdateVersion(c *gin.Context) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	artifact, status, err := h.openArtifact(c)
	if err != nil {
		abortWithError(c, status, err.Error())
		return
	}
	defer artifact.close()

	file, err := h.fileService.UpdateVersion(c.Request.Context(), actorID, fileID, &artifact.Artifact)
	if err != nil {
		h.mapFileError(c, err, "Failed to update file version.")
		return
	}
	c.JSON(http.StatusOK, file)
}

// Approve transitions a pending file to Approved.
func (h *FileHandler) Approve(c *gin.Context) {
	reviewerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	file, err := h.fileService.Approve(c.Request.Context(), reviewerID, fileID)
	if err != nil {
		h.mapFileError(c, err, "Failed to approve file.")
		return
	}
	c.JSON(http.StatusOK, file)
}

// Reject transitions a file to Rejected with the reviewer's reason.
func (h *FileHandler) Reject(c *gin.Context) {
	reviewerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RejectFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	file, err := h.fileService.Reject(c.Request.Context(), reviewerID, fileID, req.Reason)
	if err != nil {
		h.mapFileError(c, err, "Failed to reject file.")
		return
	}
	c.JSON(http.StatusOK, file)
}

// Rate upserts the calling student's rating of a file.
func (h *FileHandler) Rate(c *gin.Context) {
	studentID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	file, err := h.fileService.Rate(c.Request.Context(), studentID, fileID, req.Rating, req.Feedback)
	if err != nil {
		h.mapFileError(c, err, "Failed to rate file.")
		return
	}
	c.JSON(http.StatusOK, file)
}

// Download godoc
// @Summary Download the current version of an approved file
// @Description Streams the artifact and records the download. An unapproved
// @Description file returns 404, same as a missing one.
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Router /files/{id}/download [post]
func (h *FileHandler) Download(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	result, err := h.fileService.Download(c.Request.Context(), userID, fileID)
	if err != nil {
		h.mapFileError(c, err, "Failed to download file.")
		return
	}
	defer result.Content.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Version.FileName))
	c.DataFromReader(http.StatusOK, result.Version.FileSize, result.ContentType, result.Content, nil)
}

// ListPending returns the review queue.
func (h *FileHandler) ListPending(c *gin.Context) {
	files, err := h.fileService.ListPending(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list pending files.")
		return
	}
	respondFileList(c, files)
}

// ListMyUploads returns the caller's own uploads in every status.
func (h *FileHandler) ListMyUploads(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	files, err := h.fileService.ListByUploader(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list uploads.")
		return
	}
	respondFileList(c, files)
}

// ListApproved returns approved files, optionally filtered by query params
// fileType, semester, department and search.
func (h *FileHandler) ListApproved(c *gin.Context) {
	filter := repository.FileFilter{
		FileType:   domain.FileType(c.Query("fileType")),
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}
	if sem := c.Query("semester"); sem != "" {
		n, err := strconv.Atoi(sem)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid semester filter.")
			return
		}
		filter.Semester = n
	}

	files, err := h.fileService.ListApproved(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list approved files.")
		return
	}
	respondFileList(c, files)
}

// GetByID returns one file with its subject, uploader and rater references
// resolved.
func (h *FileHandler) GetByID(c *gin.Context) {
	fileID, ok := parseIDParam(c)
	if !ok {
		return
	}

	details, err := h.fileService.GetDetails(c.Request.Context(), fileID)
	if err != nil {
		h.mapFileError(c, err, "Failed to load file.")
		return
	}
	c.JSON(http.StatusOK, details)
}

// --- Helpers ---

type boundArtifact struct {
	service.Artifact
	src multipart.File
}

func (a *boundArtifact) close() {
	if a.src != nil {
		a.src.Close()
	}
}

// openArtifact extracts and validates the "file" part of the multipart form.
func (h *FileHandler) openArtifact(c *gin.Context) (*boundArtifact, int, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("no file uploaded")
	}
	if header.Size > h.maxFileSize {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds the %d MB limit", h.maxFileSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, http.StatusBadRequest,
			errors.New("unsupported file type: allowed are pdf, doc, docx, pptx, xlsx, jpg, jpeg, png")
	}

	src, err := header.Open()
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read uploaded file")
	}

	contentType := header.Header.Get("Content-Type")
	return &boundArtifact{
		Artifact: service.Artifact{
			FileName:    filepath.Base(header.Filename),
			ContentType: contentType,
			Size:        header.Size,
			Content:     io.LimitReader(src, h.maxFileSize),
		},
		src: src,
	}, 0, nil
}

// mapFileError translates file service errors into HTTP responses.
func (h *FileHandler) mapFileError(c *gin.Context, err error, fallback string) {
	var denied *service.ReviewDeniedError
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &denied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNoArtifact),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, service.ErrNoSubjects),
		errors.Is(err, service.ErrInvalidSubjectRef),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrInvalidSemester),
		errors.Is(err, service.ErrInvalidRating):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArtifactMissing):
		abortWithError(c, http.StatusInternalServerError, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

func parseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid file ID format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondFileList(c *gin.Context, files []domain.File) {
	if files == nil {
		files = []domain.File{}
	}
	c.JSON(http.StatusOK, files)
}
