package repository

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/shinyyama/motors-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// dbHandle holds the connection shared by a repository. It may be attached
// after requests are already being served.
type dbHandle struct {
	db atomic.Pointer[gorm.DB]
}

func (h *dbHandle) SetDB(db *gorm.DB) {
	h.db.Store(db)
}

func (h *dbHandle) session(ctx context.Context) (*gorm.DB, error) {
	db := h.db.Load()
	if db == nil {
		return nil, ErrDBNotReady
	}
	return db.WithContext(ctx), nil
}

// statusScope filters the status column the same way model.NormalizeStatus
// classifies it, so legacy literals are included and unknown values count as
// pending.
func statusScope(s model.Status) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if s == model.StatusPending {
			decided := append(model.StatusAliases(model.StatusApproved), model.StatusAliases(model.StatusRejected)...)
			return q.Where("LOWER(TRIM(status)) NOT IN ?", decided)
		}
		return q.Where("LOWER(TRIM(status)) IN ?", model.StatusAliases(s))
	}
}
