package model

import (
	"time"

	"github.com/emisorlabs/emisor/internal/constant"
)

// EmissionTemp is one raw row of an emission batch between upload and
// promotion. A staging buffer only; no validation happens at this stage.
type EmissionTemp struct {
	BaseModel
	SesionID       string  `gorm:"type:text;not null;index:idx_emision_temp_sesion,priority:1" json:"sesionId"`
	ProjectID      string  `gorm:"type:text;not null;index:idx_emision_temp_sesion,priority:2" json:"projectId"`
	Cuenta         string  `gorm:"type:varchar(50);not null;index" json:"cuenta"`
	OrdenImpresion int     `gorm:"type:int;not null" json:"ordenImpresion"`
	DatosRaw       JSONMap `gorm:"type:jsonb" json:"datosRaw"`
}

func (et EmissionTemp) TableName() string {
	return "emisiones_temp"
}

// EmissionFinal is a promoted row. is_generado=false with empty error is the
// pending render queue; a populated error keeps the row visible for operator
// remediation without ever being silently dropped.
type EmissionFinal struct {
	BaseModel
	SesionID       string                `gorm:"type:text;not null;index:idx_emision_final_sesion,priority:1;index:idx_emision_final_orden,priority:2" json:"sesionId"`
	ProjectID      string                `gorm:"type:text;not null;index:idx_emision_final_sesion,priority:2" json:"projectId"`
	TemplateID     string                `gorm:"type:text;not null" json:"templateId"`
	Cuenta         string                `gorm:"type:varchar(50);not null;index" json:"cuenta"`
	OrdenImpresion int                   `gorm:"type:int;not null;index:idx_emision_final_orden,priority:1" json:"ordenImpresion"`
	DatosJSON      JSONMap               `gorm:"type:jsonb;not null" json:"datosJson"`
	Documento      constant.DocumentType `gorm:"type:varchar(50);not null" json:"documento"`
	Pmo            string                `gorm:"type:varchar(50);not null" json:"pmo"`
	FechaEmision   time.Time             `gorm:"type:timestamptz;not null" json:"fechaEmision"`
	Visita         string                `gorm:"type:varchar(50);not null" json:"visita"`
	CodigoBarras   string                `gorm:"type:varchar(500)" json:"codigoBarras"`
	IsGenerado     bool                  `gorm:"type:boolean;default:false" json:"isGenerado"`
	Error          string                `gorm:"type:text;default:''" json:"error"`

	// Render workers claim a row with an atomic conditional update before
	// touching it. A stale claim becomes reclaimable after a bounded timeout.
	ClaimedBy string     `gorm:"type:text;default:''" json:"-"`
	ClaimedAt *time.Time `gorm:"type:timestamptz" json:"-"`

	Project  Project  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Template Template `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (ef EmissionFinal) TableName() string {
	return "emisiones_final"
}

// EmissionAccumulated is the permanent archive of successfully rendered
// documents. Append-only; rows are never updated after insert.
type EmissionAccumulated struct {
	BaseModel
	SesionID       string                `gorm:"type:text;not null;index" json:"sesionId"`
	ProjectID      string                `gorm:"type:text;not null;index:idx_acumuladas_fecha,priority:2" json:"projectId"`
	TemplateID     string                `gorm:"type:text;not null" json:"templateId"`
	UserID         string                `gorm:"type:text;not null;index:idx_acumuladas_usuario" json:"userId"`
	Cuenta         string                `gorm:"type:varchar(50);not null;index" json:"cuenta"`
	OrdenImpresion int                   `gorm:"type:int;not null" json:"ordenImpresion"`
	DatosJSON      JSONMap               `gorm:"type:jsonb;not null" json:"datosJson"`
	Documento      constant.DocumentType `gorm:"type:varchar(50);not null;index" json:"documento"`
	Pmo            string                `gorm:"type:varchar(50);not null" json:"pmo"`
	FechaEmision   time.Time             `gorm:"type:timestamptz;not null;index:idx_acumuladas_fecha,priority:1" json:"fechaEmision"`
	Visita         string                `gorm:"type:varchar(50);not null" json:"visita"`
	CodigoBarras   string                `gorm:"type:varchar(500)" json:"codigoBarras"`

	RutaArchivoPdf string `gorm:"type:varchar(500);not null" json:"rutaArchivoPdf"`
	TamanoArchivo  int64  `gorm:"type:bigint" json:"tamanoArchivo"`
	// SHA-256 of the rendered file, for tamper detection at read time.
	HashArchivo string `gorm:"type:varchar(64)" json:"hashArchivo"`

	UsuarioIDGeneracion string    `gorm:"type:text;not null" json:"usuarioIdGeneracion"`
	FechaGeneracion     time.Time `gorm:"type:timestamptz;default:CURRENT_TIMESTAMP;index" json:"fechaGeneracion"`

	Project  Project  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Template Template `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	User     User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (ea EmissionAccumulated) TableName() string {
	return "emisiones_acumuladas"
}
