package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(listings *memListingRepo, pkgs *memPackageRepo, notify NotificationService) *promotionResolver {
	r := NewPromotionResolver(listings, NewCatalogService(pkgs, nil), notify).(*promotionResolver)
	r.now = fixedClock(testNow)
	return r
}

func approvedOrder(pkgID, duration, email, adID string) *model.PaymentOrder {
	return &model.PaymentOrder{
		ID:              "O1",
		PackageID:       pkgID,
		PackageName:     pkgID + " package",
		Duration:        duration,
		CustomerEmail:   email,
		AdvertisementID: adID,
		Status:          "approved",
	}
}

func TestResolveExplicitListing(t *testing.T) {
	listings := newMemListingRepo(
		sampleListing("A", "buyer@example.com", "approved", testNow.Add(-time.Hour)),
		sampleListing("B", "buyer@example.com", "approved", testNow),
	)
	notifier := &fakeNotifier{}
	r := newTestResolver(listings, newMemPackageRepo(), notifier)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackagePremium, "14 يوم", "buyer@example.com", "A"))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "A", res.ListingID)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, testNow.Add(14*24*time.Hour), *res.ExpiresAt)

	a := listings.get("A")
	assert.True(t, a.IsPaid)
	assert.Equal(t, "premium package", a.PaidPackageName)
	assert.True(t, a.PromotionConsistent())
	assert.False(t, listings.get("B").IsPaid)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, model.NotificationPromotionApplied, notifier.sent[0].Type)
	assert.Equal(t, "A", notifier.sent[0].ListingID)
}

func TestResolveExplicitListingMissing(t *testing.T) {
	listings := newMemListingRepo(sampleListing("B", "buyer@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 أيام", "buyer@example.com", "gone"))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNotFound)
	assert.Empty(t, res.ListingID)
	assert.Contains(t, res.Message, "gone")
	assert.False(t, listings.get("B").IsPaid)
}

func TestResolveFallsBackToNewestApprovedListing(t *testing.T) {
	listings := newMemListingRepo(
		sampleListing("old", "buyer@example.com", "approved", testNow.Add(-72*time.Hour)),
		sampleListing("newest-pending", "buyer@example.com", "pending", testNow),
		sampleListing("newer", "buyer@example.com", "Approve", testNow.Add(-time.Hour)),
		sampleListing("other", "someone@example.com", "approved", testNow),
	)
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 أيام", " Buyer@Example.com", ""))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "newer", res.ListingID)
	for _, id := range []string{"old", "newest-pending", "other"} {
		assert.False(t, listings.get(id).IsPaid, id)
	}
}

func TestResolveWithoutApprovedListing(t *testing.T) {
	listings := newMemListingRepo(
		sampleListing("P", "buyer@example.com", "قيد المراجعة", testNow),
		sampleListing("R", "buyer@example.com", "rejected", testNow),
	)
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 days", "buyer@example.com", ""))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoApprovedListing)
	assert.Equal(t, "no approved listing found for this buyer", res.Message)
}

func TestResolveStorageFailure(t *testing.T) {
	listings := newMemListingRepo()
	listings.findErr = errors.New("connection reset")
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 days", "buyer@example.com", ""))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrStorageUnavailable)
}

func TestGrantOverwritesPreviousGrant(t *testing.T) {
	listings := newMemListingRepo(sampleListing("L", "buyer@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(), nil)
	ctx := context.Background()

	res := r.ResolveForOrder(ctx, approvedOrder(model.PackageBasic, "7 أيام", "buyer@example.com", "L"))
	require.True(t, res.Success)

	later := testNow.Add(2 * 24 * time.Hour)
	r.now = fixedClock(later)
	res = r.ResolveForOrder(ctx, approvedOrder(model.PackageVIP, "30 يوم", "buyer@example.com", "L"))
	require.True(t, res.Success)

	l := listings.get("L")
	assert.Equal(t, model.PackageVIP, l.PaidPackageID)
	assert.Equal(t, later.Add(30*24*time.Hour), *l.PaidPackageExpiration)
	assert.Equal(t, later, *l.PaidAt)
	vip, _ := model.DefaultPackage(model.PackageVIP)
	assert.Equal(t, vip.Features, l.PaidFeatures)
	assert.EqualValues(t, 2, l.PromotionGeneration)
}

func TestGrantedFeaturesGrowWithTier(t *testing.T) {
	listings := newMemListingRepo(
		sampleListing("b", "x@example.com", "approved", testNow),
		sampleListing("p", "x@example.com", "approved", testNow),
		sampleListing("v", "x@example.com", "approved", testNow),
	)
	r := newTestResolver(listings, newMemPackageRepo(), nil)
	ctx := context.Background()
	for id, pkg := range map[string]string{"b": model.PackageBasic, "p": model.PackagePremium, "v": model.PackageVIP} {
		def, _ := model.DefaultPackage(pkg)
		res := r.ResolveForOrder(ctx, approvedOrder(pkg, def.Duration, "x@example.com", id))
		require.True(t, res.Success, res.Message)
	}

	basic, premium, vip := listings.get("b").PaidFeatures, listings.get("p").PaidFeatures, listings.get("v").PaidFeatures
	assert.Greater(t, len(premium), len(basic))
	assert.Greater(t, len(vip), len(premium))
	assert.Subset(t, premium, basic)
	assert.Subset(t, vip, premium)
}

func TestGrantUsesStoredPackageFeatures(t *testing.T) {
	custom := model.Package{ID: model.PackageBasic, Name: "Basic+", Duration: "7 days", Features: []string{"highlight"}, IsActive: true}
	listings := newMemListingRepo(sampleListing("L", "x@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(custom), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 days", "x@example.com", "L"))
	require.True(t, res.Success)
	assert.Equal(t, []string{"highlight"}, listings.get("L").PaidFeatures)
}

func TestGrantCustomPackageMissingFromCatalog(t *testing.T) {
	listings := newMemListingRepo(sampleListing("L", "x@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder("spring-sale", "14 days", "x@example.com", "L"))
	require.True(t, res.Success, res.Message)
	l := listings.get("L")
	assert.Equal(t, []string{}, l.PaidFeatures)
	assert.Equal(t, testNow.Add(14*24*time.Hour), *l.PaidPackageExpiration)
	assert.True(t, l.PromotionConsistent())
}

func TestGrantUnknownDurationFallsBackToSevenDays(t *testing.T) {
	listings := newMemListingRepo(sampleListing("L", "x@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "forever", "x@example.com", "L"))
	require.True(t, res.Success)
	assert.Equal(t, testNow.Add(model.DefaultPromotionSpan), *listings.get("L").PaidPackageExpiration)
}

func TestGrantLosesRaceWithConcurrentGrant(t *testing.T) {
	listings := newMemListingRepo(sampleListing("L", "x@example.com", "approved", testNow))
	listings.beforeApply = func(l *model.Listing) {
		l.Apply(model.PromotionGrant{PackageID: model.PackageVIP, PackageName: "VIP", ExpiresAt: testNow.Add(time.Hour), GrantedAt: testNow})
		l.PromotionGeneration++
	}
	r := newTestResolver(listings, newMemPackageRepo(), nil)

	res := r.ResolveForOrder(context.Background(), approvedOrder(model.PackageBasic, "7 days", "x@example.com", "L"))
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrConflict)
	assert.Equal(t, model.PackageVIP, listings.get("L").PaidPackageID)
}

func TestApplyManual(t *testing.T) {
	listings := newMemListingRepo(sampleListing("L", "x@example.com", "approved", testNow))
	r := newTestResolver(listings, newMemPackageRepo(), nil)
	ctx := context.Background()

	res, err := r.ApplyManual(ctx, "L", model.PackagePremium)
	require.NoError(t, err)
	assert.True(t, res.Success)
	premium, _ := model.DefaultPackage(model.PackagePremium)
	l := listings.get("L")
	assert.Equal(t, premium.Name, l.PaidPackageName)
	assert.Equal(t, testNow.Add(14*24*time.Hour), *l.PaidPackageExpiration)

	_, err = r.ApplyManual(ctx, "L", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.ApplyManual(ctx, "missing", model.PackageBasic)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveKeepsListingOfEarlierGrant(t *testing.T) {
	listings := newMemListingRepo(
		sampleListing("first", "buyer@example.com", "approved", testNow.Add(-time.Hour)),
		sampleListing("newer", "buyer@example.com", "approved", testNow),
	)
	r := newTestResolver(listings, newMemPackageRepo(), nil)
	order := approvedOrder(model.PackageBasic, "7 days", "buyer@example.com", "")
	order.PromotionListingID = "first"

	res := r.ResolveForOrder(context.Background(), order)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "first", res.ListingID)
	assert.False(t, listings.get("newer").IsPaid)
}
