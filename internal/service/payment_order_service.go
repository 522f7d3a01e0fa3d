package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/repository"
)

// PlaceholderReceiptScheme prefixes receipt references recorded when the
// upload did not reach blob storage.
const PlaceholderReceiptScheme = "pending-upload://"

type PaymentOrderService interface {
	Create(ctx context.Context, in PaymentOrderInput, receipt *Receipt) (*model.PaymentOrder, error)
	Get(ctx context.Context, id string) (*model.PaymentOrder, error)
	List(ctx context.Context, rawStatus string) ([]model.PaymentOrder, error)
	ListMine(ctx context.Context, email string) ([]model.PaymentOrder, error)
	Approve(ctx context.Context, id, note string) (*ApprovalResult, error)
	Reject(ctx context.Context, id, note string) (*model.PaymentOrder, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

type ReceiptStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type ReceiptReader interface {
	ReadAmount(ctx context.Context, data []byte, contentType string) (float64, error)
}

type PaymentOrderInput struct {
	PackageID       string
	CustomerUID     string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	AdvertisementID string
	Notes           string
}

type Receipt struct {
	Data        []byte
	ContentType string
}

type ApprovalResult struct {
	Order     *model.PaymentOrder
	Promotion PromotionResult
}

// Partial reports whether the order was approved but no promotion applied.
func (r *ApprovalResult) Partial() bool {
	return !r.Promotion.Success
}

// Err is nil on full success and wraps ErrPartialSuccess otherwise.
func (r *ApprovalResult) Err() error {
	if !r.Partial() {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartialSuccess, r.Promotion.Err)
}

func (r *ApprovalResult) Message() string {
	if r.Partial() {
		return "payment approved, but " + r.Promotion.Message
	}
	return "payment approved; " + r.Promotion.Message
}

type Statistics struct {
	TotalOrders    int
	PendingOrders  int
	ApprovedOrders int
	RejectedOrders int
	TotalRevenue   float64
}

type paymentOrderService struct {
	repo     repository.PaymentOrderRepository
	catalog  CatalogService
	resolver PromotionResolver
	receipts ReceiptStore
	reader   ReceiptReader
}

// NewPaymentOrderService wires the order lifecycle. receipts and reader may
// be nil; a nil store records placeholder references.
func NewPaymentOrderService(repo repository.PaymentOrderRepository, catalog CatalogService, resolver PromotionResolver, receipts ReceiptStore, reader ReceiptReader) PaymentOrderService {
	return &paymentOrderService{repo: repo, catalog: catalog, resolver: resolver, receipts: receipts, reader: reader}
}

func (s *paymentOrderService) Create(ctx context.Context, in PaymentOrderInput, receipt *Receipt) (*model.PaymentOrder, error) {
	name := strings.TrimSpace(in.CustomerName)
	email := strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	phone := strings.TrimSpace(in.CustomerPhone)
	if name == "" {
		return nil, invalid("customer name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("a valid customer email is required")
	}
	if phone == "" {
		return nil, invalid("customer phone is required")
	}
	if receipt == nil || len(receipt.Data) == 0 {
		return nil, invalid("payment receipt is required")
	}
	pkg, err := s.catalog.Get(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, invalid("package %s is not available", pkg.ID)
	}

	o := &model.PaymentOrder{
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		Amount:          pkg.Price,
		Duration:        pkg.Duration,
		CustomerUID:     in.CustomerUID,
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerEmail:   email,
		AdvertisementID: strings.TrimSpace(in.AdvertisementID),
		Notes:           strings.TrimSpace(in.Notes),
		Status:          string(model.StatusPending),
	}
	o.ReceiptURL, o.ReceiptUploaded = s.storeReceipt(ctx, receipt)
	if s.reader != nil {
		if amount, err := s.reader.ReadAmount(ctx, receipt.Data, receipt.ContentType); err != nil {
			zlog.Ctx(ctx).Warn().Err(err).Msg("receipt amount not detected")
		} else {
			o.DetectedAmount = &amount
		}
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, storeErr(err, "create payment order")
	}
	zlog.Ctx(ctx).Info().
		Str("order", o.ID).
		Str("package", o.PackageID).
		Float64("amount", o.Amount).
		Bool("receipt_uploaded", o.ReceiptUploaded).
		Msg("payment order created")
	return o, nil
}

// storeReceipt uploads the proof of transfer. A failed upload is downgraded to
// a warning and a placeholder reference so the order is still recorded.
func (s *paymentOrderService) storeReceipt(ctx context.Context, r *Receipt) (string, bool) {
	placeholder := PlaceholderReceiptScheme + uuid.NewString()
	if s.receipts == nil {
		zlog.Ctx(ctx).Warn().Msg("receipt storage not configured; recording placeholder")
		return placeholder, false
	}
	url, err := s.receipts.Upload(ctx, r.Data, r.ContentType)
	if err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Str("placeholder", placeholder).Msg("receipt upload failed; recording placeholder")
		return placeholder, false
	}
	return url, true
}

func (s *paymentOrderService) Get(ctx context.Context, id string) (*model.PaymentOrder, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load payment order %s", id)
	}
	return o, nil
}

func (s *paymentOrderService) List(ctx context.Context, rawStatus string) ([]model.PaymentOrder, error) {
	if strings.TrimSpace(rawStatus) == "" {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, storeErr(err, "list payment orders")
		}
		return list, nil
	}
	status, ok := model.ParseStatus(rawStatus)
	if !ok {
		return nil, invalid("unknown status %q", rawStatus)
	}
	list, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, storeErr(err, "list %s payment orders", status)
	}
	return list, nil
}

func (s *paymentOrderService) ListMine(ctx context.Context, email string) ([]model.PaymentOrder, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	list, err := s.repo.ListByCustomerEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "list payment orders of %s", email)
	}
	return list, nil
}

// Approve stores the approval first and then applies the promotion. A
// promotion failure does not undo the approval; it is reported through the
// result. Re-approving an approved order re-runs the promotion, which
// overwrites the previous grant.
func (s *paymentOrderService) Approve(ctx context.Context, id, note string) (*ApprovalResult, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load payment order %s", id)
	}
	if o.CurrentStatus() == model.StatusRejected {
		return nil, invalid("payment order %s was rejected", id)
	}
	o.Status = string(model.StatusApproved)
	if note = strings.TrimSpace(note); note != "" {
		o.AdminNotes = note
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, storeErr(err, "approve payment order %s", id)
	}

	promo := s.resolver.ResolveForOrder(ctx, o)
	o.PromotionListingID = promo.ListingID
	o.PromotionMessage = promo.Message
	if err := s.repo.Update(ctx, o); err != nil {
		zlog.Ctx(ctx).Warn().Err(err).Str("order", id).Msg("promotion outcome not recorded on order")
	}

	res := &ApprovalResult{Order: o, Promotion: promo}
	ev := zlog.Ctx(ctx).Info()
	if res.Partial() {
		ev = zlog.Ctx(ctx).Warn().Err(promo.Err)
	}
	ev.Str("order", id).Str("listing", promo.ListingID).Bool("promoted", promo.Success).Msg("payment order approved")
	return res, nil
}

func (s *paymentOrderService) Reject(ctx context.Context, id, note string) (*model.PaymentOrder, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load payment order %s", id)
	}
	if o.CurrentStatus() == model.StatusApproved {
		return nil, invalid("payment order %s is already approved", id)
	}
	o.Status = string(model.StatusRejected)
	if note = strings.TrimSpace(note); note != "" {
		o.AdminNotes = note
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, storeErr(err, "reject payment order %s", id)
	}
	zlog.Ctx(ctx).Info().Str("order", id).Msg("payment order rejected")
	return o, nil
}

func (s *paymentOrderService) Statistics(ctx context.Context) (*Statistics, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err, "list payment orders")
	}
	return computeStatistics(orders), nil
}

func computeStatistics(orders []model.PaymentOrder) *Statistics {
	st := &Statistics{TotalOrders: len(orders)}
	for _, o := range orders {
		switch o.CurrentStatus() {
		case model.StatusPending:
			st.PendingOrders++
		case model.StatusApproved:
			st.ApprovedOrders++
			st.TotalRevenue += o.Amount
		case model.StatusRejected:
			st.RejectedOrders++
		}
	}
	return st
}
