package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/service"
)

type PackageHandler struct {
	svc service.CatalogService
}

func NewPackageHandler(svc service.CatalogService) *PackageHandler {
	return &PackageHandler{svc: svc}
}

type PackageResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  string   `json:"duration"`
	Features  []string `json:"features"`
	IsActive  bool     `json:"isActive"`
	IsPopular bool     `json:"isPopular"`
	Color     string   `json:"color"`
	Icon      string   `json:"icon"`
	SortOrder int      `json:"sortOrder"`
}

type PackageRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Duration  string   `json:"duration"`
	Features  []string `json:"features"`
	IsActive  *bool    `json:"isActive"`
	IsPopular bool     `json:"isPopular"`
	Color     string   `json:"color"`
	Icon      string   `json:"icon"`
	SortOrder int      `json:"sortOrder"`
}

func (r PackageRequest) input() service.PackageInput {
	return service.PackageInput{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Duration:  r.Duration,
		Features:  r.Features,
		IsActive:  r.IsActive,
		IsPopular: r.IsPopular,
		Color:     r.Color,
		Icon:      r.Icon,
		SortOrder: r.SortOrder,
	}
}

// ListActive is the buyer-facing list.
func (h *PackageHandler) ListActive(c echo.Context) error {
	list, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return respondError(c, err, "packages")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"packages": toPackageList(list)})
}

func (h *PackageHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "packages")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"packages": toPackageList(list)})
}

func (h *PackageHandler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "package")
	}
	return c.JSON(http.StatusOK, toPackageResponse(p))
}

func (h *PackageHandler) Create(c echo.Context) error {
	var req PackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.Create(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err, "package")
	}
	return c.JSON(http.StatusCreated, toPackageResponse(p))
}

func (h *PackageHandler) Update(c echo.Context) error {
	var req PackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return respondError(c, err, "package")
	}
	return c.JSON(http.StatusOK, toPackageResponse(p))
}

func (h *PackageHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "package")
	}
	return c.NoContent(http.StatusNoContent)
}

func toPackageList(list []model.Package) []PackageResponse {
	resp := make([]PackageResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPackageResponse(&list[i]))
	}
	return resp
}

func toPackageResponse(p *model.Package) PackageResponse {
	return PackageResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Duration:  p.Duration,
		Features:  nonNil(p.Features),
		IsActive:  p.IsActive,
		IsPopular: p.IsPopular,
		Color:     p.Color,
		Icon:      p.Icon,
		SortOrder: p.SortOrder,
	}
}
