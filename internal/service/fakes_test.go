package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
)

type memListingRepo struct {
	mu       sync.Mutex
	rows     map[string]*model.Listing
	findErr  error
	applyErr error
	// beforeApply runs inside ApplyPromotion before the generation check.
	beforeApply func(l *model.Listing)
}

func newMemListingRepo(ls ...model.Listing) *memListingRepo {
	r := &memListingRepo{rows: map[string]*model.Listing{}}
	for i := range ls {
		l := ls[i]
		r.rows[l.ID] = &l
	}
	return r
}

func (r *memListingRepo) Create(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = "listing-" + time.Now().Format("150405.000000000")
	}
	l.CreatedAt = time.Now()
	cp := *l
	r.rows[l.ID] = &cp
	return nil
}

func (r *memListingRepo) FindByID(_ context.Context, id string) (*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	l, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memListingRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		switch k {
		case "status":
			l.Status = v.(string)
		case "admin_notes":
			l.AdminNotes = v.(string)
		case "updated_at":
			l.UpdatedAt = v.(time.Time)
		case "price":
			l.Price = v.(float64)
		case "original_price":
			p := v.(float64)
			l.OriginalPrice = &p
		case "mileage":
			l.Mileage = v.(int)
		case "condition":
			l.Condition = v.(string)
		case "city":
			l.City = v.(string)
		case "contact_name":
			l.ContactName = v.(string)
		case "contact_phone":
			l.ContactPhone = v.(string)
		case "contact_whatsapp":
			l.ContactWhatsApp = v.(string)
		case "description":
			l.Description = v.(string)
		default:
			panic("unexpected column " + k)
		}
	}
	return 1, nil
}

func (r *memListingRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *memListingRepo) ListByOwner(_ context.Context, userUID string) ([]model.Listing, error) {
	return r.filter(func(l *model.Listing) bool { return l.UserID == userUID }), nil
}

func (r *memListingRepo) ListByStatus(_ context.Context, status model.Status, limit, offset int) ([]model.Listing, int64, error) {
	all := r.filter(func(l *model.Listing) bool { return l.CurrentStatus() == status })
	return window(all, limit, offset), int64(len(all)), nil
}

func (r *memListingRepo) ListPublic(_ context.Context, now time.Time, limit, offset int) ([]model.Listing, int64, error) {
	all := r.filter(func(l *model.Listing) bool { return l.CurrentStatus() == model.StatusApproved })
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PromotionActive(now) && !all[j].PromotionActive(now)
	})
	return window(all, limit, offset), int64(len(all)), nil
}

func (r *memListingRepo) FindLatestApprovedByEmail(_ context.Context, email string) (*model.Listing, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	all := r.filter(func(l *model.Listing) bool {
		return l.UserEmail == email && l.CurrentStatus() == model.StatusApproved
	})
	if len(all) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &all[0], nil
}

func (r *memListingRepo) ApplyPromotion(_ context.Context, id string, generation int64, g model.PromotionGrant) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return 0, r.applyErr
	}
	l, ok := r.rows[id]
	if !ok {
		return 0, nil
	}
	if r.beforeApply != nil {
		r.beforeApply(l)
	}
	if l.PromotionGeneration != generation {
		return 0, nil
	}
	l.Apply(g)
	l.PromotionGeneration++
	return 1, nil
}

func (r *memListingRepo) SetDB(*gorm.DB) {}

func (r *memListingRepo) get(id string) *model.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

// filter returns matching rows newest first.
func (r *memListingRepo) filter(keep func(l *model.Listing) bool) []model.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Listing
	for _, l := range r.rows {
		if keep(l) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func window(all []model.Listing, limit, offset int) []model.Listing {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

type memOrderRepo struct {
	mu        sync.Mutex
	rows      map[string]*model.PaymentOrder
	updates   int
	updateErr error
	listErr   error
}

func newMemOrderRepo(os ...model.PaymentOrder) *memOrderRepo {
	r := &memOrderRepo{rows: map[string]*model.PaymentOrder{}}
	for i := range os {
		o := os[i]
		r.rows[o.ID] = &o
	}
	return r
}

func (r *memOrderRepo) Create(_ context.Context, o *model.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = "order-" + time.Now().Format("150405.000000000")
	}
	cp := *o
	r.rows[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*model.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) Update(_ context.Context, o *model.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	cp := *o
	r.rows[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) List(context.Context) ([]model.PaymentOrder, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.filter(func(*model.PaymentOrder) bool { return true }), nil
}

func (r *memOrderRepo) ListByStatus(_ context.Context, status model.Status) ([]model.PaymentOrder, error) {
	return r.filter(func(o *model.PaymentOrder) bool { return o.CurrentStatus() == status }), nil
}

func (r *memOrderRepo) ListByCustomerEmail(_ context.Context, email string) ([]model.PaymentOrder, error) {
	return r.filter(func(o *model.PaymentOrder) bool { return o.CustomerEmail == email }), nil
}

func (r *memOrderRepo) SetDB(*gorm.DB) {}

func (r *memOrderRepo) get(id string) *model.PaymentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memOrderRepo) filter(keep func(o *model.PaymentOrder) bool) []model.PaymentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PaymentOrder
	for _, o := range r.rows {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memPackageRepo struct {
	mu      sync.Mutex
	rows    map[string]model.Package
	seeds   int
	listErr error
	findErr error
}

func newMemPackageRepo(ps ...model.Package) *memPackageRepo {
	r := &memPackageRepo{rows: map[string]model.Package{}}
	for _, p := range ps {
		r.rows[p.ID] = p
	}
	return r
}

func (r *memPackageRepo) List(context.Context) ([]model.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.Package, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *memPackageRepo) FindByID(_ context.Context, id string) (*model.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memPackageRepo) Create(_ context.Context, p *model.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *memPackageRepo) Update(_ context.Context, p *model.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[p.ID] = *p
	return nil
}

func (r *memPackageRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *memPackageRepo) SeedIfEmpty(_ context.Context, pkgs []model.Package) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) > 0 {
		return false, nil
	}
	r.seeds++
	for _, p := range pkgs {
		r.rows[p.ID] = p
	}
	return true, nil
}

func (r *memPackageRepo) SetDB(*gorm.DB) {}

type recordedNotification struct {
	UserUID   string
	Type      string
	ListingID string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userUID, typ, _, _ string, listingID, _ *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	rec := recordedNotification{UserUID: userUID, Type: typ}
	if listingID != nil {
		rec.ListingID = *listingID
	}
	n.sent = append(n.sent, rec)
}

func (n *fakeNotifier) List(context.Context, string, bool, int) ([]model.Notification, int64, error) {
	return nil, 0, nil
}

func (n *fakeNotifier) MarkAllRead(context.Context, string) error { return nil }

func (n *fakeNotifier) MarkByListing(context.Context, string, string) error { return nil }

type mapCache struct {
	pkgs        []model.Package
	ok          bool
	sets        int
	invalidates int
}

func (c *mapCache) GetPackages(context.Context) ([]model.Package, bool) { return c.pkgs, c.ok }

func (c *mapCache) SetPackages(_ context.Context, pkgs []model.Package) {
	c.pkgs, c.ok = pkgs, true
	c.sets++
}

func (c *mapCache) InvalidatePackages(context.Context) {
	c.pkgs, c.ok = nil, false
	c.invalidates++
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
