package model

import (
	"github.com/emisorlabs/emisor/internal/constant"
)

// AuditLog is one bitacora entry. Append-only; entries are written inside the
// same transaction as the mutation they describe, so a rolled-back mutation
// leaves no trace.
type AuditLog struct {
	BaseModel
	UserID    string               `gorm:"type:text;not null;index:idx_bitacora_usuario" json:"userId"`
	Accion    constant.AuditAction `gorm:"type:varchar(100);not null;index:idx_bitacora_accion" json:"accion"`
	Entidad   constant.AuditEntity `gorm:"type:varchar(50);index:idx_bitacora_entidad,priority:1" json:"entidad"`
	EntidadID string               `gorm:"type:text;index:idx_bitacora_entidad,priority:2" json:"entidadId"`
	Detalles  JSONMap              `gorm:"type:jsonb" json:"detalles"`
	IP        string               `gorm:"type:varchar(45)" json:"ip"`
	UserAgent string               `gorm:"type:text" json:"userAgent"`

	User User `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (al AuditLog) TableName() string {
	return "bitacora"
}
