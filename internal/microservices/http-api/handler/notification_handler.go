package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lendinghub/internal/microservices/http-api/repository"
	"lendinghub/internal/microservices/http-api/service"
	"lendinghub/internal/microservices/loanwatch"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanRunner is the administrative "run scan now" trigger.
type ScanRunner interface {
	RunNow(ctx context.Context) loanwatch.PassResult
}

type NotificationHandler struct {
	svc     service.NotificationService
	scans   ScanRunner
	history loanwatch.History
	logger  *zap.Logger
}

func NewNotificationHandler(svc service.NotificationService, scans ScanRunner, history loanwatch.History, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, scans: scans, history: history, logger: logger}
}

// RegisterRoutes mounts the inbox routes on rg and the librarian routes
// behind the staff middlewares.
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup, staff ...gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.PATCH("/:id/read", h.MarkAsRead)
	rg.PUT("/read-all", h.MarkAllAsRead)

	admin := rg.Group("", staff...)
	{
		admin.GET("/overdue", h.ListOverdue)
		admin.POST("/scan", h.TriggerScan)
		admin.GET("/scan/history", h.ScanHistory)
	}
}

func currentUserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}

func pageParams(c *gin.Context) (skip, limit int, ok bool) {
	var err error
	if skip, err = strconv.Atoi(c.DefaultQuery("skip", "0")); err != nil {
		return 0, 0, false
	}
	if limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageLimit))); err != nil {
		return 0, 0, false
	}
	return skip, limit, true
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	skip, limit, ok := pageParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	var unread *bool
	if raw := c.Query("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unread filter"})
			return
		}
		unread = &v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	notifications, err := h.svc.List(ctx, userID, unread, skip, limit)
	if err != nil {
		h.logger.Error("list notifications", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.MarkAsRead(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("mark notification read", zap.Int64("notification_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllAsRead marks all notifications as read for the caller
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.MarkAllAsRead(ctx, userID); err != nil {
		h.logger.Error("mark all notifications read", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ListOverdue(c *gin.Context) {
	skip, limit, ok := pageParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination parameters"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loans, err := h.svc.ListOverdueLoans(ctx, c.Query("search"), skip, limit)
	if err != nil {
		h.logger.Error("list overdue loans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load overdue loans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// TriggerScan runs one pass synchronously. Per-record failures are never
// itemized; only a failed pass changes the response.
func (h *NotificationHandler) TriggerScan(c *gin.Context) {
	// the pass must finish even if the caller disconnects
	result := h.scans.RunNow(context.WithoutCancel(c.Request.Context()))
	if result.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed, see server logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Manual scan completed"})
}

func (h *NotificationHandler) ScanHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("read scan history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}
