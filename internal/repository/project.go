package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/emisorlabs/emisor/internal/auth"
	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/pkg/emision"
	"gorm.io/gorm"
)

var ErrProjectDeleted = errors.New("el proyecto está eliminado")

type ProjectRepository struct {
	*baseRepository
	audit *AuditRepository
}

// Create registers the project, deriving the padron logical table name from
// the project name and validating the column descriptor before anything is
// persisted.
func (pr *ProjectRepository) Create(ctx context.Context, tx *gorm.DB, actx AuditContext, project *model.Project) (*model.Project, error) {
	pr.logger.Debugf("Create project: %s", project.Nombre)

	if _, err := emision.ParseTableStructure(project.EstructuraPadron); err != nil {
		return nil, fmt.Errorf("estructura del padrón inválida: %w", err)
	}

	project.NombreTablaPadron = emision.PadronTableName(emision.SanitizeTableName(project.Nombre))

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	txErr := pr.withTx(db, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Model(&model.Project{}).Create(project).Error; err != nil {
			return err
		}

		return pr.audit.Append(ctx, tx, actx, constant.AuditActionCreate, constant.AuditEntityProject, project.ID, model.JSONMap{
			"nombre":              project.Nombre,
			"nombre_tabla_padron": project.NombreTablaPadron,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return project, nil
}

func (pr ProjectRepository) GetById(ctx context.Context, tx *gorm.DB, projectId string) (*model.Project, error) {
	pr.logger.Debugf("Get project by id: %s", projectId)

	db := pr.getDB(tx)
	var project *model.Project

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Project{}).
		Where(&model.Project{BaseModel: model.BaseModel{ID: projectId}}).
		First(&project).Error; err != nil {
		return project, err
	}

	return project, nil
}

// GetLiveById is GetById that refuses soft-deleted projects. Mutating
// operations go through this one.
func (pr ProjectRepository) GetLiveById(ctx context.Context, tx *gorm.DB, projectId string) (*model.Project, error) {
	project, err := pr.GetById(ctx, tx, projectId)
	if err != nil {
		return nil, err
	}
	if project.IsDeleted {
		return nil, ErrProjectDeleted
	}
	return project, nil
}

func (pr ProjectRepository) GetList(ctx context.Context, tx *gorm.DB, search string, page, pageSize uint) ([]*model.Project, int64, error) {
	pr.logger.Debugf("Get project list, search: %s", search)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.Project{}).Where("is_deleted = ?", false)
	if search != "" {
		query = query.Where("nombre ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*model.Project
	if err := query.Order("nombre asc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (pr *ProjectRepository) Update(ctx context.Context, tx *gorm.DB, actx AuditContext, projectId string, updated model.Project) (*model.Project, error) {
	pr.logger.Debugf("Update project: %s", projectId)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var result *model.Project
	txErr := pr.withTx(db, func(tx *gorm.DB) error {
		current, err := pr.GetLiveById(ctx, tx, projectId)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"descripcion": updated.Descripcion,
			"logo_url":    updated.LogoURL,
		}
		detalles := model.JSONMap{}
		if current.Descripcion != updated.Descripcion {
			detalles["descripcion"] = map[string]any{"anterior": current.Descripcion, "nuevo": updated.Descripcion}
		}
		if current.LogoURL != updated.LogoURL {
			detalles["logo_url"] = map[string]any{"anterior": current.LogoURL, "nuevo": updated.LogoURL}
		}

		if len(detalles) == 0 {
			result = current
			return nil
		}

		if err := tx.WithContext(ctx).Model(&model.Project{}).
			Where(&model.Project{BaseModel: model.BaseModel{ID: projectId}}).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := pr.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityProject, projectId, detalles); err != nil {
			return err
		}

		result, err = pr.GetById(ctx, tx, projectId)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return result, nil
}

// SoftDelete flags the project; its padron, templates and archived emissions
// stay queryable for reporting.
func (pr *ProjectRepository) SoftDelete(ctx context.Context, tx *gorm.DB, actx AuditContext, projectId string) error {
	pr.logger.Debugf("Soft delete project: %s", projectId)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return pr.withTx(db, func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&model.Project{}).
			Where("id = ? AND is_deleted = ?", projectId, false).
			Update("is_deleted", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		return pr.audit.Append(ctx, tx, actx, constant.AuditActionDelete, constant.AuditEntityProject, projectId, nil)
	})
}

// AssignUser adds or updates a project membership with a project-scoped role.
func (pr *ProjectRepository) AssignUser(ctx context.Context, tx *gorm.DB, actx AuditContext, projectId, userId, rolEnProyecto string) error {
	pr.logger.Debugf("Assign user %s to project %s as %s", userId, projectId, rolEnProyecto)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return pr.withTx(db, func(tx *gorm.DB) error {
		if _, err := pr.GetLiveById(ctx, tx, projectId); err != nil {
			return err
		}

		var membership model.ProjectUser
		err := tx.WithContext(ctx).Model(&model.ProjectUser{}).
			Where(&model.ProjectUser{ProjectID: projectId, UserID: userId}).
			First(&membership).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.WithContext(ctx).Model(&model.ProjectUser{}).Create(&model.ProjectUser{
				ProjectID:     projectId,
				UserID:        userId,
				RolEnProyecto: rolEnProyecto,
			}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.WithContext(ctx).Model(&model.ProjectUser{}).
				Where(&model.ProjectUser{BaseModel: model.BaseModel{ID: membership.ID}}).
				Update("rol_en_proyecto", rolEnProyecto).Error; err != nil {
				return err
			}
		}

		return pr.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityProject, projectId, model.JSONMap{
			"usuario_asignado": userId,
			"rol_en_proyecto":  rolEnProyecto,
		})
	})
}

func (pr ProjectRepository) GetMembers(ctx context.Context, tx *gorm.DB, projectId string) ([]*model.ProjectUser, error) {
	pr.logger.Debugf("Get members of project: %s", projectId)

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var members []*model.ProjectUser
	if err := db.WithContext(ctx).Model(&model.ProjectUser{}).
		Where(&model.ProjectUser{ProjectID: projectId}).
		Preload("User").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

// GetRoleOfProject resolves the effective role of the authenticated user for
// a project: the project-scoped assignment if one exists, otherwise the
// global role. SUPERADMIN always wins.
func (pr ProjectRepository) GetRoleOfProject(ctx context.Context, tx *gorm.DB, projectId string, authUser *auth.JWTPayload) (constant.Role, *model.Project, error) {
	pr.logger.Debugf("Get role of project %s for user %s", projectId, authUser.ID)

	project, err := pr.GetById(ctx, tx, projectId)
	if err != nil {
		return "", nil, err
	}

	if authUser.Rol == constant.RoleSuperadmin {
		return constant.RoleSuperadmin, project, nil
	}

	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var membership model.ProjectUser
	err = db.WithContext(ctx).Model(&model.ProjectUser{}).
		Where(&model.ProjectUser{ProjectID: projectId, UserID: authUser.ID}).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authUser.Rol, project, nil
		}
		return "", nil, err
	}

	rol := constant.Role(membership.RolEnProyecto)
	if !rol.Valid() {
		return authUser.Rol, project, nil
	}

	return rol, project, nil
}
