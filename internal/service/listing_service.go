package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/repository"
)

type ListingService interface {
	Submit(ctx context.Context, owner Owner, in ListingInput) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ListMine(ctx context.Context, userUID string) ([]model.Listing, error)
	ListPublic(ctx context.Context, limit, offset int) ([]model.Listing, int64, error)
	ListByStatus(ctx context.Context, rawStatus string, limit, offset int) ([]model.Listing, int64, error)
	SetStatus(ctx context.Context, id, rawStatus, note string) (*model.Listing, error)
	EditFields(ctx context.Context, id string, patch ListingPatch) (*model.Listing, error)
	Delete(ctx context.Context, id string) error
}

type Owner struct {
	UID   string
	Email string
}

type ListingInput struct {
	Brand           string
	Model           string
	Year            int
	Price           float64
	OriginalPrice   *float64
	Mileage         int
	Condition       string
	City            string
	Images          []string
	Features        []string
	ContactName     string
	ContactPhone    string
	ContactWhatsApp string
	Description     string
}

// ListingPatch carries the fields an administrator may overwrite. Nil means
// unchanged.
type ListingPatch struct {
	Price           *float64
	OriginalPrice   *float64
	Mileage         *int
	Condition       *string
	City            *string
	ContactName     *string
	ContactPhone    *string
	ContactWhatsApp *string
	Description     *string
}

type listingService struct {
	repo   repository.ListingRepository
	notify NotificationService
	now    func() time.Time
}

func NewListingService(repo repository.ListingRepository, notify NotificationService) ListingService {
	return &listingService{repo: repo, notify: notify, now: time.Now}
}

func (s *listingService) Submit(ctx context.Context, owner Owner, in ListingInput) (*model.Listing, error) {
	if owner.UID == "" {
		return nil, invalid("owner is required")
	}
	brand := strings.TrimSpace(in.Brand)
	modelName := strings.TrimSpace(in.Model)
	if brand == "" || modelName == "" {
		return nil, invalid("brand and model are required")
	}
	if in.Year < 1950 || in.Year > s.now().Year()+1 {
		return nil, invalid("invalid year %d", in.Year)
	}
	if in.Price <= 0 {
		return nil, invalid("price must be positive")
	}
	if in.Mileage < 0 {
		return nil, invalid("mileage must not be negative")
	}
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if strings.HasPrefix(img, "data:") {
			return nil, invalid("images must be URLs, not data URIs")
		}
		images = append(images, img)
	}
	condition := strings.TrimSpace(in.Condition)
	if condition == "" {
		condition = "used"
	}

	l := &model.Listing{
		UserID:          owner.UID,
		UserEmail:       strings.ToLower(strings.TrimSpace(owner.Email)),
		Brand:           brand,
		Model:           modelName,
		Year:            in.Year,
		Price:           in.Price,
		OriginalPrice:   in.OriginalPrice,
		Mileage:         in.Mileage,
		Condition:       condition,
		City:            strings.TrimSpace(in.City),
		Images:          images,
		Features:        uniqueTrimmed(in.Features),
		ContactName:     strings.TrimSpace(in.ContactName),
		ContactPhone:    strings.TrimSpace(in.ContactPhone),
		ContactWhatsApp: strings.TrimSpace(in.ContactWhatsApp),
		Description:     strings.TrimSpace(in.Description),
		Status:          string(model.StatusPending),
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, storeErr(err, "create listing")
	}
	return l, nil
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load listing %s", id)
	}
	return l, nil
}

func (s *listingService) ListMine(ctx context.Context, userUID string) ([]model.Listing, error) {
	if userUID == "" {
		return nil, invalid("owner is required")
	}
	list, err := s.repo.ListByOwner(ctx, userUID)
	if err != nil {
		return nil, storeErr(err, "list listings of %s", userUID)
	}
	return list, nil
}

func (s *listingService) ListPublic(ctx context.Context, limit, offset int) ([]model.Listing, int64, error) {
	limit, offset = page(limit, offset)
	list, total, err := s.repo.ListPublic(ctx, s.now(), limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, "list public listings")
	}
	return list, total, nil
}

func (s *listingService) ListByStatus(ctx context.Context, rawStatus string, limit, offset int) ([]model.Listing, int64, error) {
	status, ok := model.ParseStatus(rawStatus)
	if !ok {
		return nil, 0, invalid("unknown status %q", rawStatus)
	}
	limit, offset = page(limit, offset)
	list, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, "list %s listings", status)
	}
	return list, total, nil
}

// SetStatus moves a listing to approved or rejected. Any current state may
// move to either, so a decision can be re-opened.
func (s *listingService) SetStatus(ctx context.Context, id, rawStatus, note string) (*model.Listing, error) {
	target, ok := model.ParseStatus(rawStatus)
	if !ok || target == model.StatusPending {
		return nil, invalid("status must be approved or rejected, got %q", rawStatus)
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load listing %s", id)
	}
	now := s.now()
	fields := map[string]interface{}{
		"status":     string(target),
		"updated_at": now,
	}
	note = strings.TrimSpace(note)
	if note != "" {
		fields["admin_notes"] = note
		l.AdminNotes = note
	}
	if _, err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, storeErr(err, "update listing %s status", id)
	}
	previous := l.CurrentStatus()
	l.Status = string(target)
	l.UpdatedAt = now
	zlog.Ctx(ctx).Info().
		Str("listing", id).
		Str("from", string(previous)).
		Str("to", string(target)).
		Msg("listing status changed")

	if s.notify != nil {
		typ, title := model.NotificationListingApproved, "تمت الموافقة على إعلانك"
		if target == model.StatusRejected {
			typ, title = model.NotificationListingRejected, "تم رفض إعلانك"
		}
		body := fmt.Sprintf("%s %s %d", l.Brand, l.Model, l.Year)
		if note != "" {
			body += "\n" + note
		}
		s.notify.Notify(ctx, l.UserID, typ, title, body, strPtr(l.ID), nil)
	}
	return l, nil
}

func (s *listingService) EditFields(ctx context.Context, id string, patch ListingPatch) (*model.Listing, error) {
	fields := map[string]interface{}{}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, invalid("price must be positive")
		}
		fields["price"] = *patch.Price
	}
	if patch.OriginalPrice != nil {
		if *patch.OriginalPrice < 0 {
			return nil, invalid("original price must not be negative")
		}
		fields["original_price"] = *patch.OriginalPrice
	}
	if patch.Mileage != nil {
		if *patch.Mileage < 0 {
			return nil, invalid("mileage must not be negative")
		}
		fields["mileage"] = *patch.Mileage
	}
	setTrimmed(fields, "condition", patch.Condition)
	setTrimmed(fields, "city", patch.City)
	setTrimmed(fields, "contact_name", patch.ContactName)
	setTrimmed(fields, "contact_phone", patch.ContactPhone)
	setTrimmed(fields, "contact_whatsapp", patch.ContactWhatsApp)
	setTrimmed(fields, "description", patch.Description)
	if len(fields) == 0 {
		return nil, invalid("nothing to update")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, storeErr(err, "load listing %s", id)
	}
	fields["updated_at"] = s.now()
	if _, err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, storeErr(err, "update listing %s", id)
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "reload listing %s", id)
	}
	return l, nil
}

// Delete removes the listing. A promotion grant lives on the record, so it
// goes with it.
func (s *listingService) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "delete listing %s", id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "listing %s", id)
	}
	zlog.Ctx(ctx).Info().Str("listing", id).Msg("listing deleted")
	return nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func setTrimmed(fields map[string]interface{}, column string, v *string) {
	if v != nil {
		fields[column] = strings.TrimSpace(*v)
	}
}

func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
