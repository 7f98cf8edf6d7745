package model

import (
	"time"

	"github.com/emisorlabs/emisor/internal/constant"
)

type User struct {
	BaseModel
	Username       string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"username" form:"username" binding:"required,strNotEmpty,max=50"`
	Email          string        `gorm:"uniqueIndex;not null;type:citext" json:"email" form:"email" binding:"required,email"`
	HashedPassword string        `gorm:"type:varchar(255);not null" json:"-"`
	NombreCompleto string        `gorm:"type:varchar(255);not null" json:"nombreCompleto" form:"nombreCompleto" binding:"required,strNotEmpty"`
	Rol            constant.Role `gorm:"type:varchar(20);not null;index:idx_usuarios_rol" json:"rol" form:"rol" binding:"required"`
	IsActive       bool          `gorm:"type:boolean;default:true" json:"isActive"`
	IsDeleted      bool          `gorm:"type:boolean;default:false;index" json:"-"`
	LastLogin      *time.Time    `gorm:"type:timestamptz" json:"lastLogin"`
}

func (u User) TableName() string {
	return "usuarios"
}
