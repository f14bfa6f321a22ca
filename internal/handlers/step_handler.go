package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func (h *Handler) StepPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": services.PresetSteps})
}

func (h *Handler) ListSteps(c *gin.Context) {
	steps, err := h.Steps.List(c.Request.Context(), scopeOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection_steps": steps})
}

func (h *Handler) AddStep(c *gin.Context) {
	var req dtos.StepRequest
	if !h.bind(c, &req) {
		return
	}
	step, err := h.Steps.Add(c.Request.Context(), scopeOf(c), c.Param("id"), req.StepName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (h *Handler) UpdateStepMemo(c *gin.Context) {
	var req dtos.StepMemoRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Steps.UpdateMemo(c.Request.Context(), scopeOf(c), c.Param("id"), req.Memo); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveStep answers with the steps as stored after the swap. When one of the
// two updates failed the error is reported and the list is not sent.
func (h *Handler) MoveStep(c *gin.Context) {
	var req dtos.MoveStepRequest
	if !h.bind(c, &req) {
		return
	}
	steps, err := h.Steps.Move(c.Request.Context(), scopeOf(c), c.Param("id"), services.Direction(req.Direction))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection_steps": steps})
}

func (h *Handler) DeleteStep(c *gin.Context) {
	if err := h.Steps.Delete(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
