package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func (h *Handler) UpcomingDeadlines(c *gin.Context) {
	all := c.Query("all") == "true" || c.Query("all") == "1"
	items, err := h.Deadlines.Upcoming(c.Request.Context(), scopeOf(c), all)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deadlines": items})
}

func (h *Handler) CompanyDeadlines(c *gin.Context) {
	items, err := h.Deadlines.ForCompany(c.Request.Context(), scopeOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deadlines": items})
}

func (h *Handler) CompleteDeadline(c *gin.Context) {
	var req dtos.CompleteDeadlineRequest
	if !h.bind(c, &req) {
		return
	}
	id := deadlines.ItemID{Kind: deadlines.Kind(req.Kind), SourceID: req.SourceID}
	if err := h.Deadlines.CompleteTask(c.Request.Context(), scopeOf(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req dtos.TaskRequest
	if !h.bind(c, &req) {
		return
	}
	task, err := h.Tasks.Create(c.Request.Context(), scopeOf(c), services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) ToggleTask(c *gin.Context) {
	task, err := h.Tasks.Toggle(c.Request.Context(), scopeOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
