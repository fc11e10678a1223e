package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/domain/shared"
	"github.com/procurehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// currentRowCondition restricts a query to each invoice's latest validation
// attempt. The table is append-only, so "current" is a max over validated_at.
const currentRowCondition = `validated_at = (
	SELECT MAX(v2.validated_at) FROM validation_results v2
	WHERE v2.invoice_id = validation_results.invoice_id
)`

// GormValidationResultRepository implements ValidationResultRepository using GORM
type GormValidationResultRepository struct {
	db *gorm.DB
}

// NewGormValidationResultRepository creates a new GormValidationResultRepository
func NewGormValidationResultRepository(db *gorm.DB) *GormValidationResultRepository {
	return &GormValidationResultRepository{db: db}
}

// Save appends one validation attempt
func (r *GormValidationResultRepository) Save(ctx context.Context, result *reconciliation.ValidationResult) error {
	var model models.ValidationResultModel
	model.FromDomain(result)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindCurrentByInvoice returns the invoice's latest validation attempt
func (r *GormValidationResultRepository) FindCurrentByInvoice(ctx context.Context, invoiceID string) (*reconciliation.ValidationResult, error) {
	var model models.ValidationResultModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("validated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCurrentInRange returns each invoice's latest validation attempt whose
// validated_at falls in [start, end)
func (r *GormValidationResultRepository) FindCurrentInRange(ctx context.Context, start, end time.Time) ([]reconciliation.ValidationResult, error) {
	var resultModels []models.ValidationResultModel
	if err := r.db.WithContext(ctx).
		Where(currentRowCondition).
		Where("validated_at >= ? AND validated_at < ?", start, end).
		Order("validated_at ASC").
		Find(&resultModels).Error; err != nil {
		return nil, err
	}
	return toDomainResults(resultModels), nil
}

// FindCurrentBalancedInRange is FindCurrentInRange restricted to BALANCED rows
func (r *GormValidationResultRepository) FindCurrentBalancedInRange(ctx context.Context, start, end time.Time) ([]reconciliation.ValidationResult, error) {
	var resultModels []models.ValidationResultModel
	if err := r.db.WithContext(ctx).
		Where(currentRowCondition).
		Where("validated_at >= ? AND validated_at < ?", start, end).
		Where("balance_status = ?", reconciliation.BalanceStatusBalanced).
		Order("validated_at ASC").
		Find(&resultModels).Error; err != nil {
		return nil, err
	}
	return toDomainResults(resultModels), nil
}

func toDomainResults(resultModels []models.ValidationResultModel) []reconciliation.ValidationResult {
	results := make([]reconciliation.ValidationResult, len(resultModels))
	for i, model := range resultModels {
		results[i] = *model.ToDomain()
	}
	return results
}
