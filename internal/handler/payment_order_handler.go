package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/service"
)

const maxReceiptBytes = 10 << 20

type PaymentOrderHandler struct {
	svc service.PaymentOrderService
}

func NewPaymentOrderHandler(svc service.PaymentOrderService) *PaymentOrderHandler {
	return &PaymentOrderHandler{svc: svc}
}

type PaymentOrderResponse struct {
	ID                 string   `json:"id"`
	PackageID          string   `json:"packageId"`
	PackageName        string   `json:"packageName"`
	Amount             float64  `json:"amount"`
	Duration           string   `json:"duration"`
	CustomerName       string   `json:"customerName"`
	CustomerPhone      string   `json:"customerPhone"`
	CustomerEmail      string   `json:"customerEmail"`
	AdvertisementID    string   `json:"advertisementId,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	ReceiptURL         string   `json:"receiptUrl"`
	ReceiptUploaded    bool     `json:"receiptUploaded"`
	DetectedAmount     *float64 `json:"detectedAmount,omitempty"`
	Status             string   `json:"status"`
	AdminNotes         string   `json:"adminNotes,omitempty"`
	PromotionListingID string   `json:"promotionListingId,omitempty"`
	PromotionMessage   string   `json:"promotionMessage,omitempty"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

type PromotionOutcome struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	ListingID string  `json:"listingId,omitempty"`
	ExpiresAt *string `json:"expiresAt,omitempty"`
}

type ApprovalResponse struct {
	Outcome   string               `json:"outcome"`
	Message   string               `json:"message"`
	Order     PaymentOrderResponse `json:"order"`
	Promotion PromotionOutcome     `json:"promotion"`
}

type DecisionRequest struct {
	Note string `json:"note"`
}

type StatisticsResponse struct {
	TotalOrders    int     `json:"totalOrders"`
	PendingOrders  int     `json:"pendingOrders"`
	ApprovedOrders int     `json:"approvedOrders"`
	RejectedOrders int     `json:"rejectedOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

// Create accepts a multipart form with the buyer's details and a "receipt"
// file.
func (h *PaymentOrderHandler) Create(c echo.Context) error {
	uid, email := currentUser(c)
	if uid == "" {
		return unauthorized(c)
	}
	fh, err := c.FormFile("receipt")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "receipt file is required"))
	}
	if fh.Size > maxReceiptBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "receipt is too large"))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "cannot read receipt"))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxReceiptBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "cannot read receipt"))
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	// The verified email decides which listing an order without an explicit
	// advertisement promotes, so a typed-in address is only accepted when
	// the token carries none and the listing is named.
	advertisementID := strings.TrimSpace(c.FormValue("advertisementId"))
	customerEmail := email
	if customerEmail == "" {
		if advertisementID == "" {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "advertisementId is required for accounts without a verified email"))
		}
		customerEmail = c.FormValue("customerEmail")
	}
	o, err := h.svc.Create(c.Request().Context(), service.PaymentOrderInput{
		PackageID:       c.FormValue("packageId"),
		CustomerUID:     uid,
		CustomerName:    c.FormValue("customerName"),
		CustomerPhone:   c.FormValue("customerPhone"),
		CustomerEmail:   customerEmail,
		AdvertisementID: advertisementID,
		Notes:           c.FormValue("notes"),
	}, &service.Receipt{Data: data, ContentType: contentType})
	if err != nil {
		return respondError(c, err, "package")
	}
	return c.JSON(http.StatusCreated, toPaymentOrderResponse(o))
}

func (h *PaymentOrderHandler) ListMine(c echo.Context) error {
	uid, email := currentUser(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListMine(c.Request().Context(), email)
	if err != nil {
		return respondError(c, err, "payment orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": toPaymentOrderList(list)})
}

func (h *PaymentOrderHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return respondError(c, err, "payment orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": toPaymentOrderList(list)})
}

func (h *PaymentOrderHandler) Get(c echo.Context) error {
	o, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "payment order")
	}
	return c.JSON(http.StatusOK, toPaymentOrderResponse(o))
}

// Approve answers 200 even when the promotion could not be applied; the
// outcome field tells the two cases apart.
func (h *PaymentOrderHandler) Approve(c echo.Context) error {
	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	res, err := h.svc.Approve(c.Request().Context(), c.Param("id"), req.Note)
	if err != nil {
		return respondError(c, err, "payment order")
	}
	outcome := "success"
	if res.Partial() {
		outcome = "partial"
	}
	return c.JSON(http.StatusOK, ApprovalResponse{
		Outcome:   outcome,
		Message:   res.Message(),
		Order:     toPaymentOrderResponse(res.Order),
		Promotion: toPromotionOutcome(res.Promotion),
	})
}

func (h *PaymentOrderHandler) Reject(c echo.Context) error {
	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	o, err := h.svc.Reject(c.Request().Context(), c.Param("id"), req.Note)
	if err != nil {
		return respondError(c, err, "payment order")
	}
	return c.JSON(http.StatusOK, toPaymentOrderResponse(o))
}

func (h *PaymentOrderHandler) Statistics(c echo.Context) error {
	st, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return respondError(c, err, "statistics")
	}
	return c.JSON(http.StatusOK, StatisticsResponse{
		TotalOrders:    st.TotalOrders,
		PendingOrders:  st.PendingOrders,
		ApprovedOrders: st.ApprovedOrders,
		RejectedOrders: st.RejectedOrders,
		TotalRevenue:   st.TotalRevenue,
	})
}

func toPaymentOrderList(list []model.PaymentOrder) []PaymentOrderResponse {
	resp := make([]PaymentOrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPaymentOrderResponse(&list[i]))
	}
	return resp
}

func toPaymentOrderResponse(o *model.PaymentOrder) PaymentOrderResponse {
	return PaymentOrderResponse{
		ID:                 o.ID,
		PackageID:          o.PackageID,
		PackageName:        o.PackageName,
		Amount:             o.Amount,
		Duration:           o.Duration,
		CustomerName:       o.CustomerName,
		CustomerPhone:      o.CustomerPhone,
		CustomerEmail:      o.CustomerEmail,
		AdvertisementID:    o.AdvertisementID,
		Notes:              o.Notes,
		ReceiptURL:         o.ReceiptURL,
		ReceiptUploaded:    o.ReceiptUploaded,
		DetectedAmount:     o.DetectedAmount,
		Status:             string(o.CurrentStatus()),
		AdminNotes:         o.AdminNotes,
		PromotionListingID: o.PromotionListingID,
		PromotionMessage:   o.PromotionMessage,
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
}

func toPromotionOutcome(r service.PromotionResult) PromotionOutcome {
	out := PromotionOutcome{Success: r.Success, Message: r.Message, ListingID: r.ListingID}
	if r.ExpiresAt != nil {
		s := r.ExpiresAt.Format(time.RFC3339)
		out.ExpiresAt = &s
	}
	return out
}
