package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

func (h *Handler) SignUp(c *gin.Context) {
	var req dtos.CredentialsRequest
	if !h.bind(c, &req) {
		return
	}
	sess, err := h.Auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.SessionResponse{Session: sess})
}

func (h *Handler) SignIn(c *gin.Context) {
	var req dtos.CredentialsRequest
	if !h.bind(c, &req) {
		return
	}
	sess, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SessionResponse{Session: sess})
}

func (h *Handler) SignOut(c *gin.Context) {
	sess := sessionOf(c)
	if sess == nil {
		h.fail(c, store.ErrLoginRequired)
		return
	}
	if err := h.Auth.SignOut(c.Request.Context(), sess.AccessToken); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CurrentSession answers with a null session for visitors instead of 401.
func (h *Handler) CurrentSession(c *gin.Context) {
	sess := sessionOf(c)
	c.JSON(http.StatusOK, dtos.SessionResponse{Session: sess, Demo: sess == nil})
}

func (h *Handler) UpdateEmail(c *gin.Context) {
	sess := sessionOf(c)
	if sess == nil {
		h.fail(c, store.ErrLoginRequired)
		return
	}
	var req dtos.UpdateEmailRequest
	if !h.bind(c, &req) {
		return
	}
	updated, err := h.Auth.UpdateEmail(c.Request.Context(), sess, req.Email, req.CurrentPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.SessionResponse{Session: updated})
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	sess := sessionOf(c)
	if sess == nil {
		h.fail(c, store.ErrLoginRequired)
		return
	}
	var req dtos.UpdatePasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Auth.UpdatePassword(c.Request.Context(), sess, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
