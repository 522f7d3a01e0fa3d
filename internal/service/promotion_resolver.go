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
	"gorm.io/gorm"
)

// PromotionResult describes the outcome of applying a package to a listing.
// When Success is false, Err holds the cause and Message a text suitable for
// the administrator.
type PromotionResult struct {
	Success   bool
	Message   string
	ListingID string
	ExpiresAt *time.Time
	Err       error
}

type PromotionResolver interface {
	// ResolveForOrder finds the listing an approved order pays for and
	// attaches the package to it. It never returns an error; failures are
	// reported in the result so the order approval can stand on its own.
	ResolveForOrder(ctx context.Context, order *model.PaymentOrder) PromotionResult
	// ApplyManual grants a package to a listing without a payment order.
	ApplyManual(ctx context.Context, listingID, packageID string) (PromotionResult, error)
}

type promotionResolver struct {
	listings repository.ListingRepository
	catalog  CatalogService
	notify   NotificationService
	now      func() time.Time
}

func NewPromotionResolver(listings repository.ListingRepository, catalog CatalogService, notify NotificationService) PromotionResolver {
	return &promotionResolver{listings: listings, catalog: catalog, notify: notify, now: time.Now}
}

type grantRequest struct {
	packageID   string
	packageName string
	duration    string
	features    []string
	orderID     *string
}

func (r *promotionResolver) ResolveForOrder(ctx context.Context, order *model.PaymentOrder) PromotionResult {
	listing, err := r.targetListing(ctx, order)
	if err != nil {
		res := failedPromotion(targetID(order), err)
		res.ListingID = ""
		return res
	}
	features, err := r.featuresFor(ctx, order.PackageID)
	if err != nil {
		return failedPromotion(listing.ID, err)
	}
	res, err := r.grant(ctx, listing, grantRequest{
		packageID:   order.PackageID,
		packageName: order.PackageName,
		duration:    order.Duration,
		features:    features,
		orderID:     strPtr(order.ID),
	})
	if err != nil {
		return failedPromotion(listing.ID, err)
	}
	return res
}

func (r *promotionResolver) ApplyManual(ctx context.Context, listingID, packageID string) (PromotionResult, error) {
	pkg, err := r.catalog.Get(ctx, packageID)
	if err != nil {
		return PromotionResult{}, err
	}
	listing, err := r.listings.FindByID(ctx, listingID)
	if err != nil {
		return PromotionResult{}, storeErr(err, "load listing %s", listingID)
	}
	return r.grant(ctx, listing, grantRequest{
		packageID:   pkg.ID,
		packageName: pkg.Name,
		duration:    pkg.Duration,
		features:    pkg.Features,
	})
}

// targetID is the listing an order is already bound to: the explicit one, or
// the listing an earlier approval promoted.
func targetID(order *model.PaymentOrder) string {
	if id := strings.TrimSpace(order.AdvertisementID); id != "" {
		return id
	}
	return strings.TrimSpace(order.PromotionListingID)
}

// targetListing uses the listing the order is bound to when there is one,
// otherwise the buyer's most recently created approved listing. A re-approved
// order therefore keeps promoting the same listing.
func (r *promotionResolver) targetListing(ctx context.Context, order *model.PaymentOrder) (*model.Listing, error) {
	if id := targetID(order); id != "" {
		l, err := r.listings.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr(err, "listing %s", id)
		}
		return l, nil
	}
	email := strings.ToLower(strings.TrimSpace(order.CustomerEmail))
	if email == "" {
		return nil, ErrNoApprovedListing
	}
	l, err := r.listings.FindLatestApprovedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoApprovedListing
		}
		return nil, storeErr(err, "find approved listing of %s", email)
	}
	return l, nil
}

// featuresFor reads the package's features from the catalog. A package the
// catalog no longer knows still gets a grant, just with no features.
func (r *promotionResolver) featuresFor(ctx context.Context, packageID string) ([]string, error) {
	pkg, err := r.catalog.Get(ctx, packageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			zlog.Ctx(ctx).Warn().Str("package", packageID).Msg("package not in catalog; granting without features")
			return []string{}, nil
		}
		return nil, err
	}
	return pkg.Features, nil
}

func (r *promotionResolver) grant(ctx context.Context, l *model.Listing, req grantRequest) (PromotionResult, error) {
	span, known := model.ParseDuration(req.duration)
	if !known {
		zlog.Ctx(ctx).Warn().
			Str("package", req.packageID).
			Str("duration", req.duration).
			Dur("fallback", span).
			Msg("unknown package duration")
	}
	now := r.now()
	g := model.PromotionGrant{
		PackageID:   req.packageID,
		PackageName: req.packageName,
		Features:    req.features,
		ExpiresAt:   now.Add(span),
		GrantedAt:   now,
	}
	n, err := r.listings.ApplyPromotion(ctx, l.ID, l.PromotionGeneration, g)
	if err != nil {
		return PromotionResult{}, storeErr(err, "apply promotion to listing %s", l.ID)
	}
	if n == 0 {
		if _, ferr := r.listings.FindByID(ctx, l.ID); ferr != nil {
			return PromotionResult{}, storeErr(ferr, "listing %s", l.ID)
		}
		return PromotionResult{}, errors.Wrapf(ErrConflict, "listing %s promotion changed concurrently", l.ID)
	}

	expires := g.ExpiresAt
	zlog.Ctx(ctx).Info().
		Str("listing", l.ID).
		Str("package", req.packageID).
		Time("expires", expires).
		Msg("promotion applied")
	if r.notify != nil {
		body := fmt.Sprintf("%s: %s %s", req.packageName, l.Brand, l.Model)
		r.notify.Notify(ctx, l.UserID, model.NotificationPromotionApplied, "تم تفعيل ترويج إعلانك", body, strPtr(l.ID), req.orderID)
	}
	return PromotionResult{
		Success:   true,
		Message:   fmt.Sprintf("promotion %s applied to listing %s until %s", req.packageName, l.ID, expires.Format(time.RFC3339)),
		ListingID: l.ID,
		ExpiresAt: &expires,
	}, nil
}

func failedPromotion(listingID string, err error) PromotionResult {
	msg := "promotion could not be applied"
	switch {
	case errors.Is(err, ErrNoApprovedListing):
		msg = ErrNoApprovedListing.Error()
	case errors.Is(err, ErrNotFound):
		msg = fmt.Sprintf("listing %s was not found", listingID)
	case errors.Is(err, ErrConflict):
		msg = "listing promotion was changed by another action; try again"
	case errors.Is(err, ErrStorageUnavailable):
		msg = "storage unavailable while applying promotion"
	}
	return PromotionResult{Success: false, Message: msg, ListingID: listingID, Err: err}
}
