package repository

import (
	"context"
	"fmt"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/pkg/emision"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	*baseRepository
	audit *AuditRepository
}

// Create registers a template for a live project. The placeholder
// configuration is validated up front so a render never discovers a broken
// binding mid-session.
func (tr *TemplateRepository) Create(ctx context.Context, tx *gorm.DB, actx AuditContext, template *model.Template) (*model.Template, error) {
	tr.logger.Debugf("Create template %s for project %s", template.Nombre, template.ProjectID)

	if _, err := emision.ParsePlaceholderConfig(template.Configuracion); err != nil {
		return nil, fmt.Errorf("configuración de plantilla inválida: %w", err)
	}

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	txErr := tr.withTx(db, func(tx *gorm.DB) error {
		var project model.Project
		if err := tx.WithContext(ctx).Model(&model.Project{}).
			Where("id = ? AND is_deleted = ?", template.ProjectID, false).
			First(&project).Error; err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Model(&model.Template{}).Create(template).Error; err != nil {
			return err
		}

		return tr.audit.Append(ctx, tx, actx, constant.AuditActionCreate, constant.AuditEntityTemplate, template.ID, model.JSONMap{
			"nombre":   template.Nombre,
			"proyecto": template.ProjectID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return template, nil
}

func (tr TemplateRepository) GetById(ctx context.Context, tx *gorm.DB, templateId string) (*model.Template, error) {
	tr.logger.Debugf("Get template by id: %s", templateId)

	db := tr.getDB(tx)
	var template *model.Template

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Template{}).
		Where(&model.Template{BaseModel: model.BaseModel{ID: templateId}}).
		First(&template).Error; err != nil {
		return template, err
	}

	return template, nil
}

func (tr TemplateRepository) GetByProjectId(ctx context.Context, tx *gorm.DB, projectId string) ([]*model.Template, error) {
	tr.logger.Debugf("Get templates by project id: %s", projectId)

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var templates []*model.Template
	if err := db.WithContext(ctx).Model(&model.Template{}).
		Where(&model.Template{ProjectID: projectId}).
		Where("is_deleted = ?", false).
		Order("nombre asc").
		Find(&templates).Error; err != nil {
		return nil, err
	}

	return templates, nil
}

func (tr *TemplateRepository) Update(ctx context.Context, tx *gorm.DB, actx AuditContext, templateId string, updated model.Template) (*model.Template, error) {
	tr.logger.Debugf("Update template: %s", templateId)

	if len(updated.Configuracion) > 0 {
		if _, err := emision.ParsePlaceholderConfig(updated.Configuracion); err != nil {
			return nil, fmt.Errorf("configuración de plantilla inválida: %w", err)
		}
	}

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var result *model.Template
	txErr := tr.withTx(db, func(tx *gorm.DB) error {
		current, err := tr.GetById(ctx, tx, templateId)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"nombre":      updated.Nombre,
			"descripcion": updated.Descripcion,
		}
		detalles := model.JSONMap{}
		if current.Nombre != updated.Nombre {
			detalles["nombre"] = map[string]any{"anterior": current.Nombre, "nuevo": updated.Nombre}
		}
		if current.Descripcion != updated.Descripcion {
			detalles["descripcion"] = map[string]any{"anterior": current.Descripcion, "nuevo": updated.Descripcion}
		}
		if len(updated.Configuracion) > 0 {
			updates["configuracion"] = updated.Configuracion
			detalles["configuracion"] = "actualizada"
		}

		if len(detalles) == 0 {
			result = current
			return nil
		}

		if err := tx.WithContext(ctx).Model(&model.Template{}).
			Where(&model.Template{BaseModel: model.BaseModel{ID: templateId}}).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := tr.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityTemplate, templateId, detalles); err != nil {
			return err
		}

		result, err = tr.GetById(ctx, tx, templateId)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return result, nil
}

func (tr *TemplateRepository) SoftDelete(ctx context.Context, tx *gorm.DB, actx AuditContext, templateId string) error {
	tr.logger.Debugf("Soft delete template: %s", templateId)

	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return tr.withTx(db, func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&model.Template{}).
			Where("id = ? AND is_deleted = ?", templateId, false).
			Update("is_deleted", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		return tr.audit.Append(ctx, tx, actx, constant.AuditActionDelete, constant.AuditEntityTemplate, templateId, nil)
	})
}
