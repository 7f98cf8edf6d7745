package repository

import (
	"context"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"gorm.io/gorm"
)

type AuditRepository struct {
	*baseRepository
}

// AuditContext carries the actor and request metadata attached to every
// bitacora entry. Controllers build one per request.
type AuditContext struct {
	UserID    string
	IP        string
	UserAgent string
}

// Append writes one bitacora entry. Pass the same tx as the mutation being
// recorded so the entry commits or rolls back together with it.
func (ar *AuditRepository) Append(ctx context.Context, tx *gorm.DB, actx AuditContext, accion constant.AuditAction, entidad constant.AuditEntity, entidadId string, detalles model.JSONMap) error {
	ar.logger.Debugf("Append bitacora entry: %s %s %s", accion, entidad, entidadId)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.AuditLog{}).Create(&model.AuditLog{
		UserID:    actx.UserID,
		Accion:    accion,
		Entidad:   entidad,
		EntidadID: entidadId,
		Detalles:  detalles,
		IP:        actx.IP,
		UserAgent: actx.UserAgent,
	}).Error
}

func (ar AuditRepository) GetByUserId(ctx context.Context, tx *gorm.DB, userId string, page, pageSize uint) ([]*model.AuditLog, int64, error) {
	ar.logger.Debugf("Get bitacora entries by user id: %s", userId)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.AuditLog{}).Where(&model.AuditLog{UserID: userId})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*model.AuditLog
	if err := query.Order("created_at desc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (ar AuditRepository) GetByEntity(ctx context.Context, tx *gorm.DB, entidad constant.AuditEntity, entidadId string, page, pageSize uint) ([]*model.AuditLog, int64, error) {
	ar.logger.Debugf("Get bitacora entries for %s %s", entidad, entidadId)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.AuditLog{}).Where(&model.AuditLog{
		Entidad:   entidad,
		EntidadID: entidadId,
	})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*model.AuditLog
	if err := query.Order("created_at desc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
