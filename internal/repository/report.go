package repository

import (
	"context"
	"time"

	constant "github.com/emisorlabs/emisor/internal/constant"
	"gorm.io/gorm"
)

// Reports are computed on demand with aggregate queries; nothing is
// materialized.
type ReportRepository struct {
	*baseRepository
}

// UserActivity summarizes one user's footprint: sessions logged, documents
// generated and the last time they signed in.
type UserActivity struct {
	UserID         string     `json:"userId"`
	Username       string     `json:"username"`
	NombreCompleto string     `json:"nombreCompleto"`
	Logins         int64      `json:"logins"`
	Documentos     int64      `json:"documentos"`
	LastLogin      *time.Time `json:"lastLogin"`
}

// ProjectSummary aggregates a project's padron size and emission volume.
type ProjectSummary struct {
	ProjectID       string `json:"projectId"`
	Nombre          string `json:"nombre"`
	CuentasPadron   int64  `json:"cuentasPadron"`
	Plantillas      int64  `json:"plantillas"`
	Sesiones        int64  `json:"sesiones"`
	Generadas       int64  `json:"generadas"`
	PendientesError int64  `json:"pendientesError"`
}

// DailyCount is one day of generated documents for the dashboard.
type DailyCount struct {
	Dia   time.Time `json:"dia"`
	Total int64     `json:"total"`
}

// DocumentTypeCount breaks generated documents down by type.
type DocumentTypeCount struct {
	Documento constant.DocumentType `json:"documento"`
	Total     int64                 `json:"total"`
}

func (rr ReportRepository) GetUserActivity(ctx context.Context, tx *gorm.DB) ([]UserActivity, error) {
	rr.logger.Debug("Get user activity report")

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var activity []UserActivity
	if err := db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id,
		       u.username,
		       u.nombre_completo,
		       u.last_login,
		       COUNT(DISTINCT b.id) FILTER (WHERE b.accion = ?) AS logins,
		       COUNT(DISTINCT ea.id) AS documentos
		FROM usuarios u
		LEFT JOIN bitacora b ON b.user_id = u.id
		LEFT JOIN emisiones_acumuladas ea ON ea.usuario_id_generacion = u.id
		WHERE u.is_deleted = false
		GROUP BY u.id, u.username, u.nombre_completo, u.last_login
		ORDER BY documentos DESC`,
		string(constant.AuditActionLogin),
	).Scan(&activity).Error; err != nil {
		return nil, err
	}

	return activity, nil
}

func (rr ReportRepository) GetProjectSummary(ctx context.Context, tx *gorm.DB, projectId string) (*ProjectSummary, error) {
	rr.logger.Debugf("Get summary of project %s", projectId)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var summary ProjectSummary
	if err := db.WithContext(ctx).Raw(`
		SELECT p.id AS project_id,
		       p.nombre,
		       (SELECT COUNT(*) FROM padron_rows pr WHERE pr.project_id = p.id AND pr.is_deleted = false) AS cuentas_padron,
		       (SELECT COUNT(*) FROM plantillas pl WHERE pl.project_id = p.id AND pl.is_deleted = false) AS plantillas,
		       (SELECT COUNT(DISTINCT ef.sesion_id) FROM emisiones_final ef WHERE ef.project_id = p.id) AS sesiones,
		       (SELECT COUNT(*) FROM emisiones_acumuladas ea WHERE ea.project_id = p.id) AS generadas,
		       (SELECT COUNT(*) FROM emisiones_final ef WHERE ef.project_id = p.id AND ef.is_generado = false AND ef.error <> '') AS pendientes_error
		FROM proyectos p
		WHERE p.id = ?`,
		projectId,
	).Scan(&summary).Error; err != nil {
		return nil, err
	}

	if summary.ProjectID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	return &summary, nil
}

// GetDailyGenerated returns one row per day with the number of documents
// generated, over the trailing window. Days without activity are absent.
func (rr ReportRepository) GetDailyGenerated(ctx context.Context, tx *gorm.DB, projectId string, days int) ([]DailyCount, error) {
	rr.logger.Debugf("Get daily generated counts for project %s over %d days", projectId, days)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	since := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT date_trunc('day', fecha_generacion) AS dia, COUNT(*) AS total
		FROM emisiones_acumuladas
		WHERE fecha_generacion >= ?`
	args := []any{since}
	if projectId != "" {
		query += " AND project_id = ?"
		args = append(args, projectId)
	}
	query += `
		GROUP BY dia
		ORDER BY dia ASC`

	var counts []DailyCount
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (rr ReportRepository) GetGeneratedByDocumentType(ctx context.Context, tx *gorm.DB, projectId string, since time.Time) ([]DocumentTypeCount, error) {
	rr.logger.Debugf("Get generated counts by document type for project %s", projectId)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := `
		SELECT documento, COUNT(*) AS total
		FROM emisiones_acumuladas
		WHERE fecha_generacion >= ?`
	args := []any{since}
	if projectId != "" {
		query += " AND project_id = ?"
		args = append(args, projectId)
	}
	query += `
		GROUP BY documento
		ORDER BY total DESC`

	var counts []DocumentTypeCount
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}
