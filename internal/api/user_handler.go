package api

import (
	"errors"
	"net/http"

	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler holds the user service dependency (bookmarks and stats).
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type BookmarkRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

// AddBookmark saves a file to the caller's bookmark list.
func (h *UserHandler) AddBookmark(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	fileID, err := primitive.ObjectIDFromHex(req.FileID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid file ID format.")
		return
	}

	bookmarks, err := h.userService.Bookmark(c.Request.Context(), userID, fileID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyBookmarked):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrFileNotFound), errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add bookmark.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}

// RemoveBookmark deletes a file from the caller's bookmark list.
func (h *UserHandler) RemoveBookmark(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	fileID, err := primitive.ObjectIDFromHex(c.Param("fileId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid file ID format.")
		return
	}

	bookmarks, err := h.userService.RemoveBookmark(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to remove bookmark.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks})
}

// ListBookmarks returns the caller's bookmarks with their files resolved.
func (h *UserHandler) ListBookmarks(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	bookmarks, err := h.userService.ListBookmarks(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to list bookmarks.")
		}
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

// Stats returns the caller's role-appropriate dashboard numbers.
func (h *UserHandler) Stats(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	stats, err := h.userService.Stats(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load statistics.")
		}
		return
	}
	c.JSON(http.StatusOK, stats)
}
