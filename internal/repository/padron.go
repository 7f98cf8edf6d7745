package repository

import (
	"context"
	"fmt"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/pkg/emision"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PadronRepository struct {
	*baseRepository
}

// PadronRowOutcome is the per-row result of a padron load. Rows are accepted
// or rejected independently; one bad row never aborts the batch.
type PadronRowOutcome struct {
	Cuenta string `json:"cuenta"`
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// UpsertRows validates every row against the project's column descriptor and
// upserts the valid ones keyed by (project, cuenta). Returns one outcome per
// input row.
func (padr *PadronRepository) UpsertRows(ctx context.Context, tx *gorm.DB, project *model.Project, rows []map[string]any) ([]PadronRowOutcome, error) {
	padr.logger.Debugf("Upsert %d padron rows for project %s", len(rows), project.ID)

	structure, err := emision.ParseTableStructure(project.EstructuraPadron)
	if err != nil {
		return nil, fmt.Errorf("estructura del padrón inválida: %w", err)
	}

	outcomes := make([]PadronRowOutcome, 0, len(rows))
	valid := make([]*model.PadronRow, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, datos := range rows {
		cuenta, _ := datos["cuenta"].(string)
		outcome := PadronRowOutcome{Cuenta: cuenta}

		if err := structure.ValidateRow(datos); err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}
		if seen[cuenta] {
			outcome.Error = fmt.Sprintf("cuenta %s duplicada en la carga", cuenta)
			outcomes = append(outcomes, outcome)
			continue
		}
		seen[cuenta] = true

		outcome.Loaded = true
		outcomes = append(outcomes, outcome)
		valid = append(valid, &model.PadronRow{
			ProjectID: project.ID,
			Cuenta:    cuenta,
			Datos:     model.JSONMap(datos),
		})
	}

	if len(valid) == 0 {
		return outcomes, nil
	}

	db := padr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.PadronRow{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "cuenta"}},
			DoUpdates: clause.AssignmentColumns([]string{"datos", "is_deleted", "updated_at"}),
		}).
		Create(&valid).Error; err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (padr PadronRepository) GetByCuenta(ctx context.Context, tx *gorm.DB, projectId, cuenta string) (*model.PadronRow, error) {
	padr.logger.Debugf("Get padron row %s of project %s", cuenta, projectId)

	db := padr.getDB(tx)
	var row *model.PadronRow

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.PadronRow{}).
		Where(&model.PadronRow{ProjectID: projectId, Cuenta: cuenta}).
		Where("is_deleted = ?", false).
		First(&row).Error; err != nil {
		return row, err
	}

	return row, nil
}

// GetByCuentas fetches the live padron rows for a set of cuentas in one
// query, keyed by cuenta. Missing cuentas are simply absent from the map.
func (padr PadronRepository) GetByCuentas(ctx context.Context, tx *gorm.DB, projectId string, cuentas []string) (map[string]*model.PadronRow, error) {
	padr.logger.Debugf("Get %d padron rows of project %s", len(cuentas), projectId)

	db := padr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rows []*model.PadronRow
	if err := db.WithContext(ctx).Model(&model.PadronRow{}).
		Where("project_id = ? AND cuenta IN ? AND is_deleted = ?", projectId, cuentas, false).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byCuenta := make(map[string]*model.PadronRow, len(rows))
	for _, row := range rows {
		byCuenta[row.Cuenta] = row
	}

	return byCuenta, nil
}

func (padr PadronRepository) GetList(ctx context.Context, tx *gorm.DB, projectId, search string, page, pageSize uint) ([]*model.PadronRow, int64, error) {
	padr.logger.Debugf("Get padron list of project %s, search: %s", projectId, search)

	db := padr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.PadronRow{}).
		Where("project_id = ? AND is_deleted = ?", projectId, false)
	if search != "" {
		query = query.Where("cuenta ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*model.PadronRow
	if err := query.Order("cuenta asc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (padr *PadronRepository) SoftDeleteByCuenta(ctx context.Context, tx *gorm.DB, projectId, cuenta string) error {
	padr.logger.Debugf("Soft delete padron row %s of project %s", cuenta, projectId)

	db := padr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	result := db.WithContext(ctx).Model(&model.PadronRow{}).
		Where("project_id = ? AND cuenta = ? AND is_deleted = ?", projectId, cuenta, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
