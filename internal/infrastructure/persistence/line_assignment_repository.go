package persistence

import (
	"context"
	"time"

	"github.com/procurehub/backend/internal/domain/reconciliation"
	"github.com/procurehub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLineAssignmentRepository implements LineAssignmentRepository using GORM
type GormLineAssignmentRepository struct {
	db *gorm.DB
}

// NewGormLineAssignmentRepository creates a new GormLineAssignmentRepository
func NewGormLineAssignmentRepository(db *gorm.DB) *GormLineAssignmentRepository {
	return &GormLineAssignmentRepository{db: db}
}

// ReplaceForInvoice atomically replaces the invoice's assignments with the
// given set
func (r *GormLineAssignmentRepository) ReplaceForInvoice(ctx context.Context, invoiceID string, assignments []reconciliation.LineAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).
			Delete(&models.LineAssignmentModel{}).Error; err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		assignmentModels := make([]models.LineAssignmentModel, len(assignments))
		for i := range assignments {
			assignmentModels[i].FromDomain(&assignments[i])
		}
		return tx.Create(&assignmentModels).Error
	})
}

// FindByInvoice returns the invoice's assignments in line order
func (r *GormLineAssignmentRepository) FindByInvoice(ctx context.Context, invoiceID string) ([]reconciliation.LineAssignment, error) {
	var assignmentModels []models.LineAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("line_number ASC").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainAssignments(assignmentModels), nil
}

// FindInvoiceIDsWithActivity returns the distinct invoices with mapping
// activity in [start, end)
func (r *GormLineAssignmentRepository) FindInvoiceIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error) {
	var invoiceIDs []string
	if err := r.db.WithContext(ctx).
		Model(&models.LineAssignmentModel{}).
		Where("mapped_at >= ? AND mapped_at < ?", start, end).
		Distinct("invoice_id").
		Order("invoice_id ASC").
		Pluck("invoice_id", &invoiceIDs).Error; err != nil {
		return nil, err
	}
	return invoiceIDs, nil
}

// FindInRange returns all assignments mapped in [start, end)
func (r *GormLineAssignmentRepository) FindInRange(ctx context.Context, start, end time.Time) ([]reconciliation.LineAssignment, error) {
	var assignmentModels []models.LineAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("mapped_at >= ? AND mapped_at < ?", start, end).
		Order("mapped_at ASC").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	return toDomainAssignments(assignmentModels), nil
}

func toDomainAssignments(assignmentModels []models.LineAssignmentModel) []reconciliation.LineAssignment {
	assignments := make([]reconciliation.LineAssignment, len(assignmentModels))
	for i, model := range assignmentModels {
		assignments[i] = *model.ToDomain()
	}
	return assignments
}
