package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/database"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

const imageBase = "/api/v1/images/"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logging.Discard()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn, l)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, l))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	clock := services.SystemClock(tokyo)
	deadlineService := services.NewDeadlineService(l, clock)
	h := &Handler{
		Resolver:    app.NewResolver(db, tokyo),
		Auth:        services.NewAuthService(db, auth.NewTokens([]byte("test-secret"), time.Hour), auth.NewMemoryRevoker(), auth.NewBroker(), l),
		Companies:   services.NewCompanyService(l, clock, imageBase),
		Tasks:       services.NewTaskService(l, clock),
		Deadlines:   deadlineService,
		Steps:       services.NewSelectionStepService(l),
		EntrySheets: services.NewEntrySheetService(l),
		Analysis:    services.NewAnalysisService(l, clock),
		Profiles:    services.NewProfileService(l),
		Review:      services.NewReviewService(nil, l),
		Images:      store.PublicObjects(db),
		Log:         l,
	}
	r := gin.New()
	h.Register(r.Group("/api/v1"))
	return r
}

type result struct {
	code int
	body map[string]any
	raw  []byte
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) result {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	res := result{code: w.Code, raw: w.Body.Bytes()}
	if len(res.raw) > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(res.raw, &res.body))
	}
	return res
}

func signUp(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	res := do(t, r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, res.code, string(res.raw))
	sess := res.body["session"].(map[string]any)
	return sess["access_token"].(string)
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	res := do(t, r, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ok", res.body["status"])
}

func TestVisitorSeesDemoData(t *testing.T) {
	r := newRouter(t)

	res := do(t, r, http.MethodGet, "/api/v1/top", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["companies"], 4)
	assert.Len(t, res.body["deadlines"], 5)

	res = do(t, r, http.MethodGet, "/api/v1/top?all=true&industry=IT", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["companies"], 1)
	assert.Len(t, res.body["deadlines"], 8)

	res = do(t, r, http.MethodGet, "/api/v1/auth/session", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Nil(t, res.body["session"])
	assert.Equal(t, true, res.body["demo"])

	res = do(t, r, http.MethodPost, "/api/v1/companies", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.NotEmpty(t, res.body["error"])
}

func TestBadRequests(t *testing.T) {
	r := newRouter(t)

	res := do(t, r, http.MethodGet, "/api/v1/top?sort=name", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "sort", res.body["field"])

	res = do(t, r, http.MethodGet, "/api/v1/top", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = do(t, r, http.MethodPost, "/api/v1/deadlines/complete", "", map[string]string{"kind": "memo", "source_id": "1"})
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = do(t, r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "a@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "パスワードは6文字以上にしてください", res.body["error"])
}

func TestCompanyLifecycle(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "a@example.com")

	res := do(t, r, http.MethodPost, "/api/v1/companies", token, map[string]any{"name": "Acme Corp", "industry": "IT", "es_deadline": "2099-01-01"})
	require.Equal(t, http.StatusCreated, res.code, string(res.raw))
	id := res.body["id"].(string)
	assert.Equal(t, "2099-01-01", res.body["es_deadline"])

	res = do(t, r, http.MethodPost, "/api/v1/companies", token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "企業名を入力してください", res.body["error"])

	res = do(t, r, http.MethodGet, "/api/v1/companies?q=acme", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["companies"], 1)

	res = do(t, r, http.MethodPut, "/api/v1/companies/"+id, token, map[string]any{"motivation_level": 5, "es_deadline": ""})
	require.Equal(t, http.StatusOK, res.code)
	assert.EqualValues(t, 5, res.body["motivation_level"])
	assert.Nil(t, res.body["es_deadline"])

	for _, name := range []string{"ES提出", "一次面接"} {
		res = do(t, r, http.MethodPost, "/api/v1/companies/"+id+"/steps", token, map[string]string{"step_name": name})
		require.Equal(t, http.StatusCreated, res.code)
	}
	stepID := res.body["id"].(string)
	res = do(t, r, http.MethodPost, "/api/v1/steps/"+stepID+"/move", token, map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, res.code)
	steps := res.body["selection_steps"].([]any)
	require.Len(t, steps, 2)
	assert.Equal(t, "一次面接", steps[0].(map[string]any)["step_name"])

	res = do(t, r, http.MethodPost, "/api/v1/tasks", token, map[string]any{"title": "OB訪問", "company_id": id, "due_date": "2099-01-02"})
	require.Equal(t, http.StatusCreated, res.code)
	taskID := res.body["id"].(string)

	res = do(t, r, http.MethodGet, "/api/v1/companies/"+id, token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["selection_steps"], 2)
	assert.Len(t, res.body["tasks"], 1)
	assert.Len(t, res.body["deadlines"], 1)

	res = do(t, r, http.MethodPost, "/api/v1/deadlines/complete", token, map[string]string{"kind": "task", "source_id": taskID})
	require.Equal(t, http.StatusNoContent, res.code)
	res = do(t, r, http.MethodGet, "/api/v1/deadlines?all=true", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Empty(t, res.body["deadlines"])

	other := signUp(t, r, "b@example.com")
	res = do(t, r, http.MethodGet, "/api/v1/companies/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = do(t, r, http.MethodDelete, "/api/v1/companies/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, res.code)
}

func TestSignOutRevokesToken(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "a@example.com")

	res := do(t, r, http.MethodGet, "/api/v1/auth/session", token, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, false, res.body["demo"])

	res = do(t, r, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusNoContent, res.code)

	res = do(t, r, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
}

func TestSignInWithRevokedTokenHeader(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "a@example.com")

	res := do(t, r, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusNoContent, res.code)

	res = do(t, r, http.MethodPost, "/api/v1/auth/signin", token, map[string]string{"email": "a@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, res.code, string(res.raw))
	fresh := res.body["session"].(map[string]any)["access_token"].(string)
	assert.NotEqual(t, token, fresh)

	res = do(t, r, http.MethodGet, "/api/v1/profile", fresh, nil)
	assert.Equal(t, http.StatusOK, res.code)
}

func TestProfileAndReview(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "a@example.com")

	res := do(t, r, http.MethodPut, "/api/v1/profile", token, map[string]any{"university": "東京大学", "graduation_year": 2027})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "東京大学", res.body["university"])

	res = do(t, r, http.MethodPost, "/api/v1/entry-sheets/anything/revise", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.code)
}

func TestImageUpload(t *testing.T) {
	r := newRouter(t)
	token := signUp(t, r, "a@example.com")
	res := do(t, r, http.MethodPost, "/api/v1/companies", token, map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, res.code)
	id := res.body["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="logo.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/companies/"+id+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var company map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &company))
	url := company["image_url"].(string)
	require.True(t, strings.HasPrefix(url, imageBase))

	img := do(t, r, http.MethodGet, url, "", nil)
	assert.Equal(t, http.StatusOK, img.code)
	assert.Equal(t, []byte("\x89PNG fake"), img.raw)
}
