package model

// PadronRow is one account of a project's padron. The project declares its own
// column set at runtime, so rows are stored as validated jsonb instead of
// emitting DDL per project.
type PadronRow struct {
	BaseModel
	ProjectID string  `gorm:"type:text;not null;uniqueIndex:uq_padron_cuenta,priority:1" json:"projectId"`
	Cuenta    string  `gorm:"type:varchar(50);not null;uniqueIndex:uq_padron_cuenta,priority:2;index" json:"cuenta"`
	Datos     JSONMap `gorm:"type:jsonb;not null" json:"datos"`
	IsDeleted bool    `gorm:"type:boolean;default:false" json:"-"`

	Project Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (pr PadronRow) TableName() string {
	return "padron_rows"
}
