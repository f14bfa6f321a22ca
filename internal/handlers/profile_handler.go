package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), scopeOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req dtos.ProfileRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), scopeOf(c), services.ProfileInput{
		FullName:       req.FullName,
		University:     req.University,
		Department:     req.Department,
		GraduationYear: req.GraduationYear,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
