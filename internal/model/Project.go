package model

type Project struct {
	BaseModel
	Nombre      string `gorm:"type:varchar(255);uniqueIndex;not null" json:"nombre" form:"nombre" binding:"required,strNotEmpty,max=255"`
	Descripcion string `gorm:"type:text" json:"descripcion" form:"descripcion"`
	LogoURL     string `gorm:"type:varchar(500)" json:"logoUrl" form:"logoUrl"`

	// NombreTablaPadron is globally unique. The padron itself lives in
	// padron_rows keyed by project, but the logical table name is preserved
	// for operator-facing exports and reports.
	NombreTablaPadron string `gorm:"type:varchar(100);uniqueIndex;not null" json:"nombreTablaPadron"`

	// EstructuraPadron is the column descriptor the padron rows are validated
	// against. Single source of truth for ingest validation.
	EstructuraPadron JSON `gorm:"type:jsonb;not null" json:"estructuraPadron"`

	IsDeleted bool `gorm:"type:boolean;default:false;index" json:"-"`
}

func (p Project) TableName() string {
	return "proyectos"
}

// ProjectUser assigns a user to a project with a role scoped to that project.
type ProjectUser struct {
	BaseModel
	ProjectID     string `gorm:"type:text;not null;uniqueIndex:uq_proyecto_usuario,priority:1" json:"projectId"`
	UserID        string `gorm:"type:text;not null;uniqueIndex:uq_proyecto_usuario,priority:2" json:"userId"`
	RolEnProyecto string `gorm:"type:varchar(20);not null" json:"rolEnProyecto"`

	Project Project `gorm:"constraint:OnDelete:CASCADE" json:"project,omitempty"`
	User    User    `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (pu ProjectUser) TableName() string {
	return "proyectos_usuarios"
}
