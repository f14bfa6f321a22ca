package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/dtos"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

func companyInput(r dtos.CompanyRequest) services.CompanyInput {
	return services.CompanyInput{
		Name:              r.Name,
		Industry:          r.Industry,
		Location:          r.Location,
		Website:           r.Website,
		Description:       r.Description,
		MypageID:          r.MypageID,
		MypagePassword:    r.MypagePassword,
		SelectionProcess:  r.SelectionProcess,
		CurrentStatus:     r.CurrentStatus,
		MotivationLevel:   r.MotivationLevel,
		NextSelectionDate: r.NextSelectionDate,
		ESDeadline:        r.ESDeadline,
		WebtestDeadline:   r.WebtestDeadline,
		WebtestFormat:     r.WebtestFormat,
		Memo:              r.Memo,
	}
}

// TopPage is the dashboard: the filtered company list next to the upcoming deadlines.
func (h *Handler) TopPage(c *gin.Context) {
	crit, all, err := criteria(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	scope := scopeOf(c)

	var (
		list  *services.CompanyList
		items []deadlines.Item
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		list, err = h.Companies.List(ctx, scope, crit)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = h.Deadlines.Upcoming(ctx, scope, all)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.TopPageResponse{
		Companies:  list.Companies,
		Industries: list.Industries,
		Deadlines:  items,
	})
}

func (h *Handler) ListCompanies(c *gin.Context) {
	crit, _, err := criteria(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.Companies.List(c.Request.Context(), scopeOf(c), crit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req dtos.CompanyRequest
	if !h.bind(c, &req) {
		return
	}
	company, err := h.Companies.Create(c.Request.Context(), scopeOf(c), companyInput(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

// GetCompany is the company page: the company with its selection steps, its
// tasks newest first and its deadlines.
func (h *Handler) GetCompany(c *gin.Context) {
	scope := scopeOf(c)
	id := c.Param("id")

	var resp dtos.CompanyPageResponse
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		resp.Company, err = h.Companies.Get(ctx, scope, id)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Steps, err = h.Steps.List(ctx, scope, id)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Tasks, err = h.Tasks.ListForCompany(ctx, scope, id)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Deadlines, err = h.Deadlines.ForCompany(ctx, scope, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	var req dtos.CompanyRequest
	if !h.bind(c, &req) {
		return
	}
	company, err := h.Companies.Update(c.Request.Context(), scopeOf(c), c.Param("id"), companyInput(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	if err := h.Companies.Delete(c.Request.Context(), scopeOf(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage takes the multipart field "image".
func (h *Handler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		h.fail(c, &services.ValidationError{Field: "image", Message: "画像ファイルを選択してください"})
		return
	}
	f, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	company, err := h.Companies.ReplaceImage(c.Request.Context(), scopeOf(c), c.Param("id"),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}
