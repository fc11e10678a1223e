// Package models contains GORM persistence models. Models mirror domain
// entities field by field and convert both ways with ToDomain/FromDomain;
// domain entities never carry GORM tags.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurehub/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToBaseEntity converts to the domain base entity
func (m *BaseModel) ToBaseEntity() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromBaseEntity populates from the domain base entity
func (m *BaseModel) FromBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
