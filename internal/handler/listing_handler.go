package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/service"
)

type ListingHandler struct {
	svc      service.ListingService
	resolver service.PromotionResolver
}

func NewListingHandler(svc service.ListingService, resolver service.PromotionResolver) *ListingHandler {
	return &ListingHandler{svc: svc, resolver: resolver}
}

type PromotionResponse struct {
	PackageID   string   `json:"packageId"`
	PackageName string   `json:"packageName"`
	Features    []string `json:"features"`
	ExpiresAt   string   `json:"expiresAt"`
	PaidAt      string   `json:"paidAt"`
	Active      bool     `json:"active"`
}

type ListingResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	UserEmail       string             `json:"userEmail,omitempty"`
	Brand           string             `json:"brand"`
	Model           string             `json:"model"`
	Year            int                `json:"year"`
	Price           float64            `json:"price"`
	OriginalPrice   *float64           `json:"originalPrice,omitempty"`
	Mileage         int                `json:"mileage"`
	Condition       string             `json:"condition"`
	City            string             `json:"city"`
	Images          []string           `json:"images"`
	Features        []string           `json:"features"`
	ContactName     string             `json:"contactName"`
	ContactPhone    string             `json:"contactPhone"`
	ContactWhatsApp string             `json:"contactWhatsapp"`
	Description     string             `json:"description"`
	Status          string             `json:"status"`
	AdminNotes      string             `json:"adminNotes,omitempty"`
	IsPaid          bool               `json:"isPaid"`
	Promotion       *PromotionResponse `json:"promotion,omitempty"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
}

type ListingListResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int64             `json:"total"`
}

type CreateListingRequest struct {
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	Year            int      `json:"year"`
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"originalPrice"`
	Mileage         int      `json:"mileage"`
	Condition       string   `json:"condition"`
	City            string   `json:"city"`
	Images          []string `json:"images"`
	Features        []string `json:"features"`
	ContactName     string   `json:"contactName"`
	ContactPhone    string   `json:"contactPhone"`
	ContactWhatsApp string   `json:"contactWhatsapp"`
	Description     string   `json:"description"`
}

type UpdateListingStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type EditListingRequest struct {
	Price           *float64 `json:"price"`
	OriginalPrice   *float64 `json:"originalPrice"`
	Mileage         *int     `json:"mileage"`
	Condition       *string  `json:"condition"`
	City            *string  `json:"city"`
	ContactName     *string  `json:"contactName"`
	ContactPhone    *string  `json:"contactPhone"`
	ContactWhatsApp *string  `json:"contactWhatsapp"`
	Description     *string  `json:"description"`
}

type PromoteListingRequest struct {
	PackageID string `json:"packageId"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	uid, email := currentUser(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	l, err := h.svc.Submit(c.Request().Context(), service.Owner{UID: uid, Email: email}, service.ListingInput{
		Brand:           req.Brand,
		Model:           req.Model,
		Year:            req.Year,
		Price:           req.Price,
		OriginalPrice:   req.OriginalPrice,
		Mileage:         req.Mileage,
		Condition:       req.Condition,
		City:            req.City,
		Images:          req.Images,
		Features:        req.Features,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		ContactWhatsApp: req.ContactWhatsApp,
		Description:     req.Description,
	})
	if err != nil {
		return respondError(c, err, "listing")
	}
	return c.JSON(http.StatusCreated, toListingResponse(l, time.Now(), true))
}

// Get shows approved listings to everyone; other states only to the owner
// and administrators.
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "listing")
	}
	uid, _ := currentUser(c)
	isAdmin, _ := c.Get("admin").(bool)
	private := isAdmin || (uid != "" && uid == l.UserID)
	if l.CurrentStatus() != model.StatusApproved && !private {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "listing not found"))
	}
	return c.JSON(http.StatusOK, toListingResponse(l, time.Now(), private))
}

func (h *ListingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	list, total, err := h.svc.ListPublic(c.Request().Context(), limit, offset)
	if err != nil {
		return respondError(c, err, "listings")
	}
	return c.JSON(http.StatusOK, toListingList(list, total, false))
}

func (h *ListingHandler) ListMine(c echo.Context) error {
	uid, _ := currentUser(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err, "listings")
	}
	return c.JSON(http.StatusOK, toListingList(list, int64(len(list)), true))
}

func (h *ListingHandler) ListByStatus(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = string(model.StatusPending)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	list, total, err := h.svc.ListByStatus(c.Request().Context(), status, limit, offset)
	if err != nil {
		return respondError(c, err, "listings")
	}
	return c.JSON(http.StatusOK, toListingList(list, total, true))
}

func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	var req UpdateListingStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	l, err := h.svc.SetStatus(c.Request().Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		return respondError(c, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingResponse(l, time.Now(), true))
}

func (h *ListingHandler) Edit(c echo.Context) error {
	var req EditListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	l, err := h.svc.EditFields(c.Request().Context(), c.Param("id"), service.ListingPatch{
		Price:           req.Price,
		OriginalPrice:   req.OriginalPrice,
		Mileage:         req.Mileage,
		Condition:       req.Condition,
		City:            req.City,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		ContactWhatsApp: req.ContactWhatsApp,
		Description:     req.Description,
	})
	if err != nil {
		return respondError(c, err, "listing")
	}
	return c.JSON(http.StatusOK, toListingResponse(l, time.Now(), true))
}

func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "listing")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) Promote(c echo.Context) error {
	var req PromoteListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	res, err := h.resolver.ApplyManual(c.Request().Context(), c.Param("id"), req.PackageID)
	if err != nil {
		return respondError(c, err, "listing or package")
	}
	return c.JSON(http.StatusOK, toPromotionOutcome(res))
}

func toListingList(list []model.Listing, total int64, private bool) ListingListResponse {
	now := time.Now()
	resp := ListingListResponse{
		Listings: make([]ListingResponse, 0, len(list)),
		Total:    total,
	}
	for i := range list {
		resp.Listings = append(resp.Listings, toListingResponse(&list[i], now, private))
	}
	return resp
}

// toListingResponse hides the owner's email and moderation notes unless
// private is set.
func toListingResponse(l *model.Listing, now time.Time, private bool) ListingResponse {
	resp := ListingResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		Brand:           l.Brand,
		Model:           l.Model,
		Year:            l.Year,
		Price:           l.Price,
		OriginalPrice:   l.OriginalPrice,
		Mileage:         l.Mileage,
		Condition:       l.Condition,
		City:            l.City,
		Images:          nonNil(l.Images),
		Features:        nonNil(l.Features),
		ContactName:     l.ContactName,
		ContactPhone:    l.ContactPhone,
		ContactWhatsApp: l.ContactWhatsApp,
		Description:     l.Description,
		Status:          string(l.CurrentStatus()),
		IsPaid:          l.IsPaid,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       l.UpdatedAt.Format(time.RFC3339),
	}
	if private {
		resp.UserEmail = l.UserEmail
		resp.AdminNotes = l.AdminNotes
	}
	if l.IsPaid && l.PaidPackageExpiration != nil && l.PaidAt != nil {
		resp.Promotion = &PromotionResponse{
			PackageID:   l.PaidPackageID,
			PackageName: l.PaidPackageName,
			Features:    nonNil(l.PaidFeatures),
			ExpiresAt:   l.PaidPackageExpiration.Format(time.RFC3339),
			PaidAt:      l.PaidAt.Format(time.RFC3339),
			Active:      l.PromotionActive(now),
		}
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
