package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func (h *Handler) AnalysisPage(c *gin.Context) {
	page, err := h.Analysis.Page(c.Request.Context(), scopeOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) SaveAnalysis(c *gin.Context) {
	var req dtos.AnalysisRequest
	if !h.bind(c, &req) {
		return
	}
	scope := scopeOf(c)
	err := h.Analysis.Save(c.Request.Context(), scope, c.Param("id"), services.AnalysisInput{
		Builtin: req.Fields,
		Memo:    req.Memo,
		Custom:  req.Custom,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Analysis.Page(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AddCustomField(c *gin.Context) {
	var req dtos.CustomFieldRequest
	if !h.bind(c, &req) {
		return
	}
	f, err := h.Analysis.AddCustomField(c.Request.Context(), scopeOf(c), req.FieldName, req.TabCategory)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) DeleteCustomField(c *gin.Context) {
	if err := h.Analysis.DeleteCustomField(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleHiddenField(c *gin.Context) {
	hidden, err := h.Analysis.ToggleHidden(c.Request.Context(), scopeOf(c), c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field_key": c.Param("key"), "hidden": hidden})
}
