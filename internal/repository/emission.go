package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/pkg/emision"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrClaimLost is returned when a worker tries to finish a row whose
	// claim has been taken over after the claim timeout expired.
	ErrClaimLost = errors.New("el registro fue reclamado por otro proceso")
)

type EmissionRepository struct {
	*baseRepository
	audit *AuditRepository
}

// PromoteOutcome is the per-row result of promoting a session. Rows are
// promoted or rejected independently.
type PromoteOutcome struct {
	Cuenta         string `json:"cuenta"`
	OrdenImpresion int    `json:"ordenImpresion"`
	Promoted       bool   `json:"promoted"`
	Error          string `json:"error,omitempty"`
}

// SessionStatus summarizes the render progress of one session.
type SessionStatus struct {
	SesionID   string `json:"sesionId"`
	Total      int64  `json:"total"`
	Pendientes int64  `json:"pendientes"`
	Generadas  int64  `json:"generadas"`
	ConError   int64  `json:"conError"`
}

// IngestBatch stages the parsed batch rows under a session. Re-ingesting the
// same session replaces its previous staging rows.
func (er *EmissionRepository) IngestBatch(ctx context.Context, tx *gorm.DB, projectId, sesionId string, records []emision.BatchRecord) (int, error) {
	er.logger.Debugf("Ingest %d batch rows into session %s", len(records), sesionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	rows := make([]*model.EmissionTemp, 0, len(records))
	for _, record := range records {
		datos := make(model.JSONMap, len(record.Extras))
		for key, value := range record.Extras {
			datos[key] = value
		}
		rows = append(rows, &model.EmissionTemp{
			SesionID:       sesionId,
			ProjectID:      projectId,
			Cuenta:         record.Cuenta,
			OrdenImpresion: record.OrdenImpresion,
			DatosRaw:       datos,
		})
	}

	txErr := er.withTx(db, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Where("sesion_id = ?", sesionId).
			Delete(&model.EmissionTemp{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		return tx.WithContext(ctx).Model(&model.EmissionTemp{}).Create(&rows).Error
	})
	if txErr != nil {
		return 0, txErr
	}

	return len(rows), nil
}

func (er EmissionRepository) GetTempBySession(ctx context.Context, tx *gorm.DB, sesionId string) ([]*model.EmissionTemp, error) {
	er.logger.Debugf("Get staged rows of session %s", sesionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rows []*model.EmissionTemp
	if err := db.WithContext(ctx).Model(&model.EmissionTemp{}).
		Where(&model.EmissionTemp{SesionID: sesionId}).
		Order("orden_impresion asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// PromoteSession turns the staged rows of a session into render rows. For
// each cuenta it resolves the padron data, checks the template's placeholder
// bindings and computes PMO, visita, the emission date and the barcode
// payload from the cuenta's accumulated history. Every staged row lands in
// the final table: rejected rows carry their error and never enter the
// render queue, but stay visible for operator remediation and retry. One
// transaction covers the whole session.
func (er *EmissionRepository) PromoteSession(ctx context.Context, tx *gorm.DB, actx AuditContext, project *model.Project, template *model.Template, sesionId string, documento constant.DocumentType) ([]PromoteOutcome, error) {
	er.logger.Debugf("Promote session %s of project %s", sesionId, project.ID)

	if !documento.Valid() {
		return nil, fmt.Errorf("tipo de documento inválido: %s", documento)
	}

	placeholders, err := emision.ParsePlaceholderConfig(template.Configuracion)
	if err != nil {
		return nil, fmt.Errorf("configuración de plantilla inválida: %w", err)
	}

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var outcomes []PromoteOutcome
	txErr := er.withTx(db, func(tx *gorm.DB) error {
		staged, err := er.GetTempBySession(ctx, tx, sesionId)
		if err != nil {
			return err
		}
		if len(staged) == 0 {
			return fmt.Errorf("la sesión %s no tiene registros cargados", sesionId)
		}

		cuentas := make([]string, 0, len(staged))
		for _, row := range staged {
			cuentas = append(cuentas, row.Cuenta)
		}

		var padron map[string]*model.PadronRow
		{
			var rows []*model.PadronRow
			if err := tx.WithContext(ctx).Model(&model.PadronRow{}).
				Where("project_id = ? AND cuenta IN ? AND is_deleted = ?", project.ID, cuentas, false).
				Find(&rows).Error; err != nil {
				return err
			}
			padron = make(map[string]*model.PadronRow, len(rows))
			for _, row := range rows {
				padron[row.Cuenta] = row
			}
		}

		now := time.Now()
		stagedIds := make([]string, 0, len(staged))
		promoted := 0
		outcomes = make([]PromoteOutcome, 0, len(staged))

		for _, row := range staged {
			outcome := PromoteOutcome{Cuenta: row.Cuenta, OrdenImpresion: row.OrdenImpresion}

			datos := make(model.JSONMap, len(row.DatosRaw))
			for key, value := range row.DatosRaw {
				datos[key] = value
			}

			pmo, visita, barras := "", "", ""
			padronRow, ok := padron[row.Cuenta]
			if !ok {
				outcome.Error = fmt.Sprintf("la cuenta %s no existe en el padrón", row.Cuenta)
			} else {
				merged := make(model.JSONMap, len(padronRow.Datos)+len(row.DatosRaw))
				for key, value := range padronRow.Datos {
					merged[key] = value
				}
				// Batch extras override padron values on key collision.
				for key, value := range row.DatosRaw {
					merged[key] = value
				}
				datos = merged

				last, err := er.getLastAccumulated(ctx, tx, project.ID, row.Cuenta)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}

				lastPmo, lastDocumento, lastVisita := "", "", ""
				if last != nil {
					lastPmo = last.Pmo
					lastDocumento = string(last.Documento)
					lastVisita = last.Visita
				}

				pmo = emision.NextPMO(lastPmo)
				visita = emision.NextVisita(lastDocumento, lastVisita, string(documento))
				barras = emision.BarcodePayload(row.Cuenta, now, visita)

				data := emision.RenderData(datos, row.Cuenta, string(documento), pmo, visita, now, barras)
				if missing := placeholders.MissingFields(data); len(missing) > 0 {
					outcome.Error = fmt.Sprintf("campos faltantes para la plantilla: %s", strings.Join(missing, ", "))
				}
			}

			// Rejected rows land in the final table too, with error set and
			// outside the render queue, so the rejection survives the HTTP
			// response and RetryErrored can pick the row up after the padron
			// or template is corrected.
			final := &model.EmissionFinal{
				SesionID:       sesionId,
				ProjectID:      project.ID,
				TemplateID:     template.ID,
				Cuenta:         row.Cuenta,
				OrdenImpresion: row.OrdenImpresion,
				DatosJSON:      datos,
				Documento:      documento,
				Pmo:            pmo,
				FechaEmision:   now,
				Visita:         visita,
				CodigoBarras:   barras,
				Error:          outcome.Error,
			}
			if err := tx.WithContext(ctx).Model(&model.EmissionFinal{}).Create(final).Error; err != nil {
				return err
			}

			outcome.Promoted = outcome.Error == ""
			if outcome.Promoted {
				promoted++
			}
			outcomes = append(outcomes, outcome)
			stagedIds = append(stagedIds, row.ID)
		}

		if err := tx.WithContext(ctx).
			Where("id IN ?", stagedIds).
			Delete(&model.EmissionTemp{}).Error; err != nil {
			return err
		}

		return er.audit.Append(ctx, tx, actx, constant.AuditActionCreate, constant.AuditEntityEmission, sesionId, model.JSONMap{
			"proyecto":   project.ID,
			"plantilla":  template.ID,
			"documento":  string(documento),
			"promovidas": promoted,
			"rechazadas": len(staged) - promoted,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return outcomes, nil
}

func (er EmissionRepository) getLastAccumulated(ctx context.Context, tx *gorm.DB, projectId, cuenta string) (*model.EmissionAccumulated, error) {
	var last *model.EmissionAccumulated
	if err := tx.WithContext(ctx).Model(&model.EmissionAccumulated{}).
		Where(&model.EmissionAccumulated{ProjectID: projectId, Cuenta: cuenta}).
		Order("fecha_emision desc").
		First(&last).Error; err != nil {
		return nil, err
	}
	return last, nil
}

// ClaimNext atomically claims the next pending row of a session for a
// worker. Pending means not generated and without error; a row already
// claimed becomes reclaimable once its claim is older than claimTimeout, so
// a crashed worker never strands a row. Returns gorm.ErrRecordNotFound when
// the session has nothing left to render.
func (er *EmissionRepository) ClaimNext(ctx context.Context, sesionId, claimedBy string, claimTimeout time.Duration) (*model.EmissionFinal, error) {
	er.logger.Debugf("Claim next pending row of session %s for %s", sesionId, claimedBy)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var claimed *model.EmissionFinal
	txErr := er.db.Transaction(func(tx *gorm.DB) error {
		cutoff := time.Now().Add(-claimTimeout)

		var row model.EmissionFinal
		if err := tx.WithContext(ctx).Model(&model.EmissionFinal{}).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("sesion_id = ? AND is_generado = ? AND error = ?", sesionId, false, "").
			Where("claimed_by = '' OR claimed_at < ?", cutoff).
			Order("orden_impresion asc").
			First(&row).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.WithContext(ctx).Model(&model.EmissionFinal{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"claimed_by": claimedBy, "claimed_at": now}).Error; err != nil {
			return err
		}

		row.ClaimedBy = claimedBy
		row.ClaimedAt = &now
		claimed = &row
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return claimed, nil
}

// ReleaseClaim hands a row back to the pending queue, e.g. on graceful
// worker shutdown. Only the claim holder can release.
func (er *EmissionRepository) ReleaseClaim(ctx context.Context, emissionId, claimedBy string) error {
	er.logger.Debugf("Release claim on %s held by %s", emissionId, claimedBy)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return er.db.WithContext(ctx).Model(&model.EmissionFinal{}).
		Where("id = ? AND claimed_by = ?", emissionId, claimedBy).
		Updates(map[string]any{"claimed_by": "", "claimed_at": nil}).Error
}

// MarkError records a render failure on the row. The row leaves the pending
// queue but stays visible for operator remediation; it is never dropped.
func (er *EmissionRepository) MarkError(ctx context.Context, emissionId, claimedBy, renderError string) error {
	er.logger.Debugf("Mark render error on %s: %s", emissionId, renderError)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	result := er.db.WithContext(ctx).Model(&model.EmissionFinal{}).
		Where("id = ? AND claimed_by = ? AND is_generado = ?", emissionId, claimedBy, false).
		Updates(map[string]any{"error": renderError, "claimed_by": "", "claimed_at": nil})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClaimLost
	}

	return nil
}

// RetryErrored clears the error of a final row so it re-enters the pending
// queue. Used after an operator fixed the underlying cause.
func (er *EmissionRepository) RetryErrored(ctx context.Context, tx *gorm.DB, actx AuditContext, emissionId string) error {
	er.logger.Debugf("Retry errored emission %s", emissionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return er.withTx(db, func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&model.EmissionFinal{}).
			Where("id = ? AND is_generado = ? AND error <> ''", emissionId, false).
			Updates(map[string]any{"error": "", "claimed_by": "", "claimed_at": nil})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return er.audit.Append(ctx, tx, actx, constant.AuditActionUpdate, constant.AuditEntityEmission, emissionId, model.JSONMap{
			"accion": "reintento",
		})
	})
}

// Archive records a successfully rendered document: the accumulated row and
// the is_generado flip commit together, so a crash between render and
// archive leaves the row pending and it is simply rendered again. Archiving
// an already generated row is a no-op.
func (er *EmissionRepository) Archive(ctx context.Context, final *model.EmissionFinal, claimedBy, rutaArchivoPdf string, tamanoArchivo int64, hashArchivo, usuarioIdGeneracion string) (*model.EmissionAccumulated, error) {
	er.logger.Debugf("Archive emission %s as %s", final.ID, rutaArchivoPdf)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	accumulated := &model.EmissionAccumulated{
		BaseModel:           model.BaseModel{ID: final.ID},
		SesionID:            final.SesionID,
		ProjectID:           final.ProjectID,
		TemplateID:          final.TemplateID,
		UserID:              usuarioIdGeneracion,
		Cuenta:              final.Cuenta,
		OrdenImpresion:      final.OrdenImpresion,
		DatosJSON:           final.DatosJSON,
		Documento:           final.Documento,
		Pmo:                 final.Pmo,
		FechaEmision:        final.FechaEmision,
		Visita:              final.Visita,
		CodigoBarras:        final.CodigoBarras,
		RutaArchivoPdf:      rutaArchivoPdf,
		TamanoArchivo:       tamanoArchivo,
		HashArchivo:         hashArchivo,
		UsuarioIDGeneracion: usuarioIdGeneracion,
		FechaGeneracion:     time.Now(),
	}

	txErr := er.db.Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&model.EmissionFinal{}).
			Where("id = ? AND claimed_by = ? AND is_generado = ?", final.ID, claimedBy, false).
			Updates(map[string]any{"is_generado": true, "claimed_by": "", "claimed_at": nil})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either another worker archived it already or the claim was
			// reassigned; check which.
			var current model.EmissionFinal
			if err := tx.WithContext(ctx).Model(&model.EmissionFinal{}).
				Where("id = ?", final.ID).
				First(&current).Error; err != nil {
				return err
			}
			if current.IsGenerado {
				accumulated = nil
				return nil
			}
			return ErrClaimLost
		}

		return tx.WithContext(ctx).Model(&model.EmissionAccumulated{}).Create(accumulated).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return accumulated, nil
}

func (er EmissionRepository) GetFinalById(ctx context.Context, tx *gorm.DB, emissionId string) (*model.EmissionFinal, error) {
	er.logger.Debugf("Get final emission by id: %s", emissionId)

	db := er.getDB(tx)
	var row *model.EmissionFinal

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.EmissionFinal{}).
		Where(&model.EmissionFinal{BaseModel: model.BaseModel{ID: emissionId}}).
		First(&row).Error; err != nil {
		return row, err
	}

	return row, nil
}

func (er EmissionRepository) GetFinalBySession(ctx context.Context, tx *gorm.DB, sesionId string) ([]*model.EmissionFinal, error) {
	er.logger.Debugf("Get final emissions of session %s", sesionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rows []*model.EmissionFinal
	if err := db.WithContext(ctx).Model(&model.EmissionFinal{}).
		Where(&model.EmissionFinal{SesionID: sesionId}).
		Order("orden_impresion asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// GetSessionStatus reports how far a session's render has progressed.
func (er EmissionRepository) GetSessionStatus(ctx context.Context, tx *gorm.DB, sesionId string) (*SessionStatus, error) {
	er.logger.Debugf("Get status of session %s", sesionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	status := &SessionStatus{SesionID: sesionId}
	type countRow struct {
		IsGenerado bool
		HasError   bool
		Total      int64
	}

	var counts []countRow
	if err := db.WithContext(ctx).Model(&model.EmissionFinal{}).
		Select("is_generado, error <> '' AS has_error, COUNT(*) AS total").
		Where("sesion_id = ?", sesionId).
		Group("is_generado, has_error").
		Find(&counts).Error; err != nil {
		return nil, err
	}

	for _, row := range counts {
		status.Total += row.Total
		switch {
		case row.IsGenerado:
			status.Generadas += row.Total
		case row.HasError:
			status.ConError += row.Total
		default:
			status.Pendientes += row.Total
		}
	}

	return status, nil
}

func (er EmissionRepository) GetAccumulatedById(ctx context.Context, tx *gorm.DB, accumulatedId string) (*model.EmissionAccumulated, error) {
	er.logger.Debugf("Get accumulated emission by id: %s", accumulatedId)

	db := er.getDB(tx)
	var row *model.EmissionAccumulated

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.EmissionAccumulated{}).
		Where(&model.EmissionAccumulated{BaseModel: model.BaseModel{ID: accumulatedId}}).
		First(&row).Error; err != nil {
		return row, err
	}

	return row, nil
}

func (er EmissionRepository) GetAccumulatedBySession(ctx context.Context, tx *gorm.DB, sesionId string) ([]*model.EmissionAccumulated, error) {
	er.logger.Debugf("Get accumulated emissions of session %s", sesionId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rows []*model.EmissionAccumulated
	if err := db.WithContext(ctx).Model(&model.EmissionAccumulated{}).
		Where(&model.EmissionAccumulated{SesionID: sesionId}).
		Order("orden_impresion asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// GetAccumulatedList filters the archive by project, cuenta and emission
// date range, newest first.
func (er EmissionRepository) GetAccumulatedList(ctx context.Context, tx *gorm.DB, projectId, cuenta string, from, to *time.Time, page, pageSize uint) ([]*model.EmissionAccumulated, int64, error) {
	er.logger.Debugf("Get accumulated list of project %s", projectId)

	db := er.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.EmissionAccumulated{}).
		Where("project_id = ?", projectId)
	if cuenta != "" {
		query = query.Where("cuenta = ?", cuenta)
	}
	if from != nil {
		query = query.Where("fecha_emision >= ?", *from)
	}
	if to != nil {
		query = query.Where("fecha_emision <= ?", *to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*model.EmissionAccumulated
	if err := query.Order("fecha_emision desc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
