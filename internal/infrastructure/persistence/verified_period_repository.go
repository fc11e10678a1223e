package persistence

import (
	"context"

	"github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/procurehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVerifiedPeriodRepository implements VerifiedPeriodRepository using GORM
type GormVerifiedPeriodRepository struct {
	db *gorm.DB
}

// NewGormVerifiedPeriodRepository creates a new GormVerifiedPeriodRepository
func NewGormVerifiedPeriodRepository(db *gorm.DB) *GormVerifiedPeriodRepository {
	return &GormVerifiedPeriodRepository{db: db}
}

// ReplaceForPeriod deletes any existing rows for the period and inserts the
// new snapshot in one transaction
func (r *GormVerifiedPeriodRepository) ReplaceForPeriod(ctx context.Context, period string, totals []reconciliation.VerifiedPeriodTotals) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period = ?", period).
			Delete(&models.VerifiedPeriodTotalsModel{}).Error; err != nil {
			return err
		}
		if len(totals) == 0 {
			return nil
		}
		totalModels := make([]models.VerifiedPeriodTotalsModel, len(totals))
		for i := range totals {
			totalModels[i].FromDomain(&totals[i])
		}
		return tx.Create(&totalModels).Error
	})
}

// FindByPeriod returns the locked totals for a period
func (r *GormVerifiedPeriodRepository) FindByPeriod(ctx context.Context, period string) ([]reconciliation.VerifiedPeriodTotals, error) {
	var totalModels []models.VerifiedPeriodTotalsModel
	if err := r.db.WithContext(ctx).
		Where("period = ?", period).
		Order("finance_code ASC").
		Find(&totalModels).Error; err != nil {
		return nil, err
	}
	if len(totalModels) == 0 {
		return nil, shared.ErrNotFound
	}

	totals := make([]reconciliation.VerifiedPeriodTotals, len(totalModels))
	for i, model := range totalModels {
		totals[i] = *model.ToDomain()
	}
	return totals, nil
}

// ListPeriods returns one entry per locked period, most recent first
func (r *GormVerifiedPeriodRepository) ListPeriods(ctx context.Context) ([]reconciliation.PeriodLock, error) {
	var locks []reconciliation.PeriodLock
	if err := r.db.WithContext(ctx).
		Model(&models.VerifiedPeriodTotalsModel{}).
		Select("period, MAX(verified_by) AS verified_by, MAX(verified_at) AS verified_at, SUM(amount_cents) AS total_amount_cents").
		Group("period").
		Order("period DESC").
		Scan(&locks).Error; err != nil {
		return nil, err
	}
	return locks, nil
}
