package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
)

// NoticeHandler holds the notice service dependency.
type NoticeHandler struct {
	noticeService service.NoticeService
}

// NewNoticeHandler creates a new NoticeHandler.
func NewNoticeHandler(noticeService service.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeService: noticeService}
}

// CreateNoticeRequest binds the non-file fields of the multipart notice form.
type CreateNoticeRequest struct {
	Title         string   `form:"title" binding:"required"`
	Content       string   `form:"content" binding:"required"`
	TargetCourses []string `form:"targetCourses"`
}

// Create publishes a notice. Attachments arrive as repeated "attachments"
// parts of the multipart form.
func (h *NoticeHandler) Create(c *gin.Context) {
	authorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateNoticeRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.NoticeInput{
		Title:         req.Title,
		Content:       req.Content,
		TargetCourses: req.TargetCourses,
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		var closers []io.Closer
		defer func() {
			for _, cl := range closers {
				cl.Close()
			}
		}()
		for _, header := range form.File["attachments"] {
			src, err := header.Open()
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to read attachment.")
				return
			}
			closers = append(closers, src)
			in.Attachments = append(in.Attachments, service.Artifact{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Content:     src,
			})
		}
	}

	notice, err := h.noticeService.Create(c.Request.Context(), authorID, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNotice):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAttachmentTooLarge):
			abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create notice.")
		}
		return
	}
	c.JSON(http.StatusCreated, notice)
}

// List returns active notices, optionally filtered by course.
func (h *NoticeHandler) List(c *gin.Context) {
	notices, err := h.noticeService.ListActive(c.Request.Context(), c.Query("course"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list notices.")
		return
	}
	if notices == nil {
		notices = []domain.Notice{}
	}
	c.JSON(http.StatusOK, notices)
}

// GetByID returns one notice.
func (h *NoticeHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	notice, err := h.noticeService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoticeNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load notice.")
		}
		return
	}
	c.JSON(http.StatusOK, notice)
}

// DownloadAttachment streams one attachment of a notice.
func (h *NoticeHandler) DownloadAttachment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid attachment index.")
		return
	}

	body, contentType, err := h.noticeService.Attachment(c.Request.Context(), id, index)
	if err != nil {
		if errors.Is(err, service.ErrNoticeNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load attachment.")
		}
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

// Delete deactivates a notice; it stays retrievable by id.
func (h *NoticeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	notice, err := h.noticeService.Deactivate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoticeNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to deactivate notice.")
		}
		return
	}
	c.JSON(http.StatusOK, notice)
}
