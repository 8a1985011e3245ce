package handlers

import (
	"net/http"
	"strconv"
	"time"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ActivityHandler lets administrators prune a user's activity feed.
type ActivityHandler struct {
	activity activity.Service
	logger   *logger.Logger
}

func NewActivityHandler(svc activity.Service, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{activity: svc, logger: logger}
}

// DeleteUserActivity removes the user's entries created before the
// RFC 3339 "before" query parameter.
func (h *ActivityHandler) DeleteUserActivity(c *gin.Context) {
	log := middleware.LoggerFrom(c, h.logger)

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	before, err := time.Parse(time.RFC3339, c.Query("before"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC 3339 timestamp"})
		return
	}

	n, err := h.activity.DeleteOlderThan(c.Request.Context(), userID, before)
	if err != nil {
		log.Errorw("Activity cleanup failed", "user_id", userID, "before", before, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "cleanup failed"})
		return
	}

	log.Infow("User activity pruned", "user_id", userID, "before", before, "deleted", n)
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
