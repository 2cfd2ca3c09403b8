package api

import (
	"net/http"

	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler holds the admin analytics service dependency.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Analytics returns the portal-wide dashboard summary.
func (h *AdminHandler) Analytics(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load analytics.")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
