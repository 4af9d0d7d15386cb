package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/manhwawut/chapter-feed/app/feed"
	"github.com/manhwawut/chapter-feed/app/tasks"
)

// NewHandler wires the HTTP handlers. catalog and scheduler are optional and
// must be passed as untyped nil when absent.
func NewHandler(service FeedService, generator GeneratorInterface, catalog CatalogInterface,
	scheduler tasks.TaskSchedulerInterface, windowDays float64) *Handler {
	return &Handler{
		service:    service,
		generator:  generator,
		catalog:    catalog,
		scheduler:  scheduler,
		windowDays: windowDays,
		now:        time.Now,
	}
}

func (h *Handler) GetLatestUpdates(c *gin.Context) {
	entries, err := h.service.GetLatestUpdatesFeed(c.Request.Context(), h.now())
	if err != nil {
		slog.Error("Feed aggregation failed", "feed", "latest-updates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetFilteredManhwas(c *gin.Context) {
	days, err := h.windowDaysParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.service.GetWindowedFeed(c.Request.Context(), h.now(), days)
	if err != nil {
		slog.Error("Feed aggregation failed", "feed", "filtered-manwhas", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetRecentFeed(c *gin.Context) {
	days, err := h.windowDaysParam(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	entries, err := h.service.GetWindowedFeed(c.Request.Context(), now, days)
	if err != nil {
		slog.Error("Feed aggregation failed", "feed", "recent.xml", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(feed.Channel{WindowDays: days}, entries, now)
	if err != nil {
		slog.Error("RSS generation error", "feed", "recent.xml", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(entries)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetDescription(c *gin.Context) {
	id := c.Param("id")

	details, err := h.service.GetSeriesDetails(c.Request.Context(), id)
	if errors.Is(err, feed.ErrSeriesNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Description not found"})
		return
	}
	if err != nil {
		slog.Error("Failed to load series", "series", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) GetChapters(c *gin.Context) {
	id := c.Param("id")

	chapters, err := h.service.GetChapterList(c.Request.Context(), id)
	if errors.Is(err, feed.ErrSeriesNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		return
	}
	if err != nil {
		slog.Error("Failed to load series", "series", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, chapters)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if ids, err := h.service.ListSeriesIDs(c.Request.Context()); err == nil {
		health["series"] = len(ids)
	}

	if h.catalog != nil {
		health["catalog_entries"] = h.catalog.Count()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListSeries(c *gin.Context) {
	ids, err := h.service.ListSeriesIDs(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list series", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list series"})
		return
	}

	seriesList := lo.Map(ids, func(id string, _ int) map[string]interface{} {
		info := map[string]interface{}{"id": id}
		if h.catalog != nil {
			info["enabled"] = h.catalog.IsEnabled(id)
		}
		return info
	})

	c.JSON(http.StatusOK, map[string]interface{}{
		"series": seriesList,
		"total":  len(seriesList),
	})
}

func (h *Handler) APIReloadCatalog(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalog not configured"})
		return
	}

	if err := h.catalog.Reload(); err != nil {
		slog.Error("Error reloading catalog", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload catalog",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Catalog reloaded successfully",
		"series":  h.catalog.Count(),
	})
}

func (h *Handler) APIImportSeries(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import is only available with sqlite storage"})
		return
	}

	id := c.Param("id")

	task, err := h.scheduler.ImportSeries(id)
	switch {
	case errors.Is(err, tasks.ErrInvalidSeries):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid series id"})
		return
	case errors.Is(err, tasks.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full, try again later"})
		return
	case err != nil:
		slog.Error("Error enqueueing import task", "series", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue import task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Import task enqueued",
		"task": gin.H{
			"id":     task.GetID(),
			"type":   task.GetType(),
			"series": task.GetSeriesID(),
		},
	})
}

// windowDaysParam reads ?days=, falling back to the configured window.
func (h *Handler) windowDaysParam(c *gin.Context) (float64, error) {
	raw := c.Query("days")
	if raw == "" {
		return h.windowDays, nil
	}

	days, err := strconv.ParseFloat(raw, 64)
	if err != nil || days <= 0 || math.IsInf(days, 0) || math.IsNaN(days) {
		return 0, fmt.Errorf("days must be a positive number, got %q", raw)
	}
	return days, nil
}
