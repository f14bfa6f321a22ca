package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func (h *Handler) EntrySheetPage(c *gin.Context) {
	crit, _, err := criteria(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.EntrySheets.Page(c.Request.Context(), scopeOf(c), crit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) CreateEntrySheet(c *gin.Context) {
	var req dtos.EntrySheetRequest
	if !h.bind(c, &req) {
		return
	}
	es, err := h.EntrySheets.CreateEntrySheet(c.Request.Context(), scopeOf(c), c.Param("id"), services.EntrySheetInput{
		Theme:     req.Theme,
		Content:   req.Content,
		CharLimit: req.CharLimit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, es)
}

func (h *Handler) UpdateEntrySheet(c *gin.Context) {
	var req dtos.EntrySheetRequest
	if !h.bind(c, &req) {
		return
	}
	es, err := h.EntrySheets.UpdateEntrySheet(c.Request.Context(), scopeOf(c), c.Param("id"), services.EntrySheetInput{
		Theme:     req.Theme,
		Content:   req.Content,
		CharLimit: req.CharLimit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, es)
}

func (h *Handler) DeleteEntrySheet(c *gin.Context) {
	if err := h.EntrySheets.DeleteEntrySheet(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReviseEntrySheet(c *gin.Context) {
	rev, err := h.Review.Revise(c.Request.Context(), scopeOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req dtos.TemplateRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.EntrySheets.CreateTemplate(c.Request.Context(), scopeOf(c), services.TemplateInput{
		Type:    req.Type,
		Theme:   req.Theme,
		Content: req.Content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req dtos.TemplateRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.EntrySheets.UpdateTemplate(c.Request.Context(), scopeOf(c), c.Param("id"), services.TemplateInput{
		Theme:   req.Theme,
		Content: req.Content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.EntrySheets.DeleteTemplate(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
