package repository

import (
	"context"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
)

type PaymentOrderRepository interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	FindByID(ctx context.Context, id string) (*model.PaymentOrder, error)
	Update(ctx context.Context, o *model.PaymentOrder) error
	List(ctx context.Context) ([]model.PaymentOrder, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.PaymentOrder, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]model.PaymentOrder, error)
	SetDB(db *gorm.DB)
}

type paymentOrderRepository struct {
	dbHandle
}

func NewPaymentOrderRepository(db *gorm.DB) PaymentOrderRepository {
	r := &paymentOrderRepository{}
	r.SetDB(db)
	return r
}

func (r *paymentOrderRepository) Create(ctx context.Context, o *model.PaymentOrder) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Create(o).Error
}

func (r *paymentOrderRepository) FindByID(ctx context.Context, id string) (*model.PaymentOrder, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var o model.PaymentOrder
	if err := q.Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *paymentOrderRepository) Update(ctx context.Context, o *model.PaymentOrder) error {
	q, err := r.session(ctx)
	if err != nil {
		return err
	}
	return q.Save(o).Error
}

func (r *paymentOrderRepository) List(ctx context.Context) ([]model.PaymentOrder, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.PaymentOrder
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentOrderRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.PaymentOrder, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.PaymentOrder
	if err := q.Scopes(statusScope(status)).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentOrderRepository) ListByCustomerEmail(ctx context.Context, email string) ([]model.PaymentOrder, error) {
	q, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	var list []model.PaymentOrder
	if err := q.Where("customer_email = ?", email).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
