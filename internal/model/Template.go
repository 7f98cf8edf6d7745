package model

type Template struct {
	BaseModel
	ProjectID   string `gorm:"type:text;not null;index:idx_plantilla_proyecto" json:"projectId"`
	Nombre      string `gorm:"type:varchar(255);not null" json:"nombre" form:"nombre" binding:"required,strNotEmpty,max=255"`
	Descripcion string `gorm:"type:text" json:"descripcion" form:"descripcion"`

	// ArchivoOrigen is the uploaded source document, ArchivoPdfBase the
	// optimized PDF actually used for stamping. Both are object-store keys.
	ArchivoOrigen  string `gorm:"type:varchar(500);not null" json:"archivoOrigen"`
	ArchivoPdfBase string `gorm:"type:varchar(500)" json:"archivoPdfBase"`

	// Configuracion declares how padron/computed fields bind to rendering
	// placeholders (page, position, font size per field).
	Configuracion JSON `gorm:"type:jsonb;not null" json:"configuracion"`
	TamanoPagina  JSON `gorm:"type:jsonb;not null" json:"tamanoPagina"`

	IsDeleted bool `gorm:"type:boolean;default:false;index:idx_plantilla_proyecto" json:"-"`

	Project Project `gorm:"constraint:OnDelete:SET NULL" json:"project,omitempty"`
}

func (t Template) TableName() string {
	return "plantillas"
}
