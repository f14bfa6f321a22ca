package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/listing"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

const (
	scopeKey   = "scope"
	sessionKey = "session"
)

// ImageReader serves stored objects by key.
type ImageReader interface {
	Get(ctx context.Context, key string) (*models.Object, error)
}

// Handler carries every service the API exposes.
type Handler struct {
	Resolver    *app.Resolver
	Auth        *services.AuthService
	Companies   *services.CompanyService
	Tasks       *services.TaskService
	Deadlines   *services.DeadlineService
	Steps       *services.SelectionStepService
	EntrySheets *services.EntrySheetService
	Analysis    *services.AnalysisService
	Profiles    *services.ProfileService
	Review      *services.ReviewService
	Images      ImageReader
	Log         *log.Logger
}

// Register mounts the API on api.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", HealthCheck)
	api.GET("/images/*key", h.GetImage)
	// A stale bearer token must not stop anyone from signing in again.
	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/signin", h.SignIn)

	r := api.Group("", h.Session())

	r.POST("/auth/signout", h.SignOut)
	r.GET("/auth/session", h.CurrentSession)
	r.PUT("/auth/email", h.UpdateEmail)
	r.PUT("/auth/password", h.UpdatePassword)

	r.GET("/top", h.TopPage)
	r.GET("/deadlines", h.UpcomingDeadlines)
	r.POST("/deadlines/complete", h.CompleteDeadline)

	r.GET("/companies", h.ListCompanies)
	r.POST("/companies", h.CreateCompany)
	r.GET("/companies/:id", h.GetCompany)
	r.PUT("/companies/:id", h.UpdateCompany)
	r.DELETE("/companies/:id", h.DeleteCompany)
	r.PUT("/companies/:id/image", h.UploadImage)
	r.GET("/companies/:id/deadlines", h.CompanyDeadlines)

	r.POST("/tasks", h.CreateTask)
	r.POST("/tasks/:id/toggle", h.ToggleTask)
	r.DELETE("/tasks/:id", h.DeleteTask)

	r.GET("/steps/presets", h.StepPresets)
	r.GET("/companies/:id/steps", h.ListSteps)
	r.POST("/companies/:id/steps", h.AddStep)
	r.PATCH("/steps/:id", h.UpdateStepMemo)
	r.POST("/steps/:id/move", h.MoveStep)
	r.DELETE("/steps/:id", h.DeleteStep)

	r.GET("/entry-sheets", h.EntrySheetPage)
	r.POST("/companies/:id/entry-sheets", h.CreateEntrySheet)
	r.PUT("/entry-sheets/:id", h.UpdateEntrySheet)
	r.DELETE("/entry-sheets/:id", h.DeleteEntrySheet)
	r.POST("/entry-sheets/:id/revise", h.ReviseEntrySheet)
	r.POST("/templates", h.CreateTemplate)
	r.PUT("/templates/:id", h.UpdateTemplate)
	r.DELETE("/templates/:id", h.DeleteTemplate)

	r.GET("/companies/:id/analysis", h.AnalysisPage)
	r.PUT("/companies/:id/analysis", h.SaveAnalysis)
	r.POST("/analysis/fields", h.AddCustomField)
	r.DELETE("/analysis/fields/:id", h.DeleteCustomField)
	r.POST("/analysis/hidden/:key", h.ToggleHiddenField)

	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Session resolves the bearer token, if any, into the request scope. Requests
// without a token run against the demo data.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *auth.Session
		if token := bearer(c.GetHeader("Authorization")); token != "" {
			s, err := h.Auth.CurrentSession(c.Request.Context(), token)
			if err != nil {
				h.fail(c, err)
				c.Abort()
				return
			}
			sess = s
		}
		scope, err := h.Resolver.ForSession(sess)
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}
		c.Set(scopeKey, scope)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func bearer(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func scopeOf(c *gin.Context) app.Scope {
	return c.MustGet(scopeKey).(app.Scope)
}

func sessionOf(c *gin.Context) *auth.Session {
	sess, _ := c.Get(sessionKey)
	s, _ := sess.(*auth.Session)
	return s
}

// criteria reads the list filter bar from the query string.
func criteria(c *gin.Context) (listing.Criteria, bool, error) {
	var q dtos.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return listing.Criteria{}, false, &services.ValidationError{Field: "query", Message: "検索条件が正しくありません"}
	}
	key, err := listing.ParseSortKey(q.Sort)
	if err != nil {
		return listing.Criteria{}, false, &services.ValidationError{Field: "sort", Message: "並び順が正しくありません"}
	}
	return listing.Criteria{Query: q.Query, Industry: q.Industry, Sort: key}, q.All, nil
}

// bind decodes the JSON body into req, answering 400 on failure.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が正しくありません: " + err.Error()})
		return false
	}
	return true
}

// fail maps err to a status code and a single user-facing message.
func (h *Handler) fail(c *gin.Context, err error) {
	var v *services.ValidationError
	switch {
	case errors.As(err, &v):
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Message, "field": v.Field})
	case errors.Is(err, store.ErrLoginRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "この操作にはログインが必要です"})
	case errors.Is(err, auth.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "セッションの有効期限が切れました。再度ログインしてください"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "データが見つかりません"})
	case errors.Is(err, services.ErrReviewDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ES添削は現在利用できません"})
	default:
		h.Log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "処理に失敗しました。時間をおいて再度お試しください"})
	}
}

func (h *Handler) GetImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, err := h.Images.Get(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
