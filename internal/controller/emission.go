package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/queue"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/emisorlabs/emisor/pkg/emision"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmissionController struct {
	*baseController
}

const (
	ErrBatchFileRequired = "se requiere el archivo CSV del lote"
	ErrNothingGenerated  = "la sesión aún no tiene documentos generados"
)

// UploadBatch stages an emission batch CSV under a fresh session id. Nothing
// is validated against the padron yet; that happens at promotion.
func (ec EmissionController) UploadBatch(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	_, role, project, err := ec.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.EmissionRun}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}
	if project.IsDeleted {
		util.ResponseFailed(ctx, http.StatusConflict, "El proyecto está eliminado", nil, nil)
		return
	}

	fileHeader, err := ctx.FormFile("batchFile")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrBatchFileRequired, util.GenerateErrorMessages(err), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}
	defer file.Close()

	raw, err := emision.ReadCSV(file)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Archivo CSV inválido", util.GenerateErrorMessages(err), nil)
		return
	}

	records, err := emision.ParseBatchCSV(raw)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Lote inválido", util.GenerateErrorMessages(err), nil)
		return
	}

	sesionId, err := util.GenerateNChar(21)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	count, err := ec.app.Repository.Emission.IngestBatch(ctx, nil, projectId, sesionId, records)
	if err != nil {
		ec.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"sesionId": sesionId,
		"staged":   count,
	})
}

func (ec EmissionController) GetStagedRows(ctx *gin.Context) {
	if _, _, _, err := ec.getProjectRole(ctx, ctx.Param("projectId")); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	rows, err := ec.app.Repository.Emission.GetTempBySession(ctx, nil, ctx.Param("sesionId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"rows": rows,
	})
}

// PromoteSession validates the staged batch against the padron and creates
// the pending render rows with their computed fields.
func (ec EmissionController) PromoteSession(ctx *gin.Context) {
	type Request struct {
		TemplateID string `json:"templateId" binding:"required,strNotEmpty"`
		Documento  string `json:"documento" binding:"required,strNotEmpty"`
	}
	var body Request

	projectId := ctx.Param("projectId")
	authUser, role, project, err := ec.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.EmissionRun}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	template, err := ec.app.Repository.Template.GetById(ctx, nil, body.TemplateID)
	if err != nil || template.ProjectID != projectId || template.IsDeleted {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Plantilla inválida para este proyecto", nil, nil)
		return
	}

	outcomes, err := ec.app.Repository.Emission.PromoteSession(ctx, nil, ec.auditContext(ctx, authUser),
		project, template, ctx.Param("sesionId"), constant.DocumentType(body.Documento))
	if err != nil {
		ec.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	promoted := 0
	for _, outcome := range outcomes {
		if outcome.Promoted {
			promoted++
		}
	}

	util.ResponseSuccess(ctx, gin.H{
		"promoted": promoted,
		"rejected": len(outcomes) - promoted,
		"outcomes": outcomes,
	})
}

// StartRender queues the session for the render consumers.
func (ec EmissionController) StartRender(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	sesionId := ctx.Param("sesionId")

	authUser, role, _, err := ec.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.EmissionRun}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	status, err := ec.app.Repository.Emission.GetSessionStatus(ctx, nil, sesionId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if status.Pendientes == 0 {
		util.ResponseFailed(ctx, http.StatusConflict, "La sesión no tiene registros pendientes", nil, gin.H{
			"status": status,
		})
		return
	}

	if err := ec.app.Queue.PublishRenderJob(queue.NewRenderJobPayload(sesionId, projectId, authUser.ID)); err != nil {
		ec.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "No se pudo encolar la generación", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"queued": true,
		"status": status,
	})
}

func (ec EmissionController) GetSessionStatus(ctx *gin.Context) {
	if _, _, _, err := ec.getProjectRole(ctx, ctx.Param("projectId")); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	status, err := ec.app.Repository.Emission.GetSessionStatus(ctx, nil, ctx.Param("sesionId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"status": status,
	})
}

func (ec EmissionController) GetSessionRows(ctx *gin.Context) {
	if _, _, _, err := ec.getProjectRole(ctx, ctx.Param("projectId")); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	rows, err := ec.app.Repository.Emission.GetFinalBySession(ctx, nil, ctx.Param("sesionId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"rows": rows,
	})
}

func (ec EmissionController) RetryErrored(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	authUser, role, _, err := ec.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.EmissionRun}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	err = ec.app.Repository.Emission.RetryErrored(ctx, nil, ec.auditContext(ctx, authUser), ctx.Param("emissionId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "El registro no está en error", nil, nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (ec EmissionController) GetAccumulated(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := ec.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	from, to, err := util.ParseDateRange(ctx.Query("desde"), ctx.Query("hasta"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Rango de fechas inválido", util.GenerateErrorMessages(err), nil)
		return
	}

	page, pageSize := util.ParsePagination(ctx)
	rows, total, err := ec.app.Repository.Emission.GetAccumulatedList(ctx, nil, projectId, ctx.Query("cuenta"), from, to, page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"rows":      rows,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": util.CalculateTotalPage(total, pageSize),
	})
}

// DownloadDocument streams one archived PDF after verifying its stored hash,
// so a tampered or corrupted object is never served.
func (ec EmissionController) DownloadDocument(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := ec.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	row, err := ec.app.Repository.Emission.GetAccumulatedById(ctx, nil, ctx.Param("accumulatedId"))
	if err != nil || row.ProjectID != projectId {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(errors.New("documento no encontrado")), nil)
		return
	}

	object, err := util.OpenS3Object(row.RutaArchivoPdf, ec.app.Config.Minio.BUCKET, ec.app.S3)
	if err != nil {
		ec.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	defer object.Close()

	hash, err := util.HashReaderSHA256(object)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if row.HashArchivo != "" && hash != row.HashArchivo {
		ec.app.Logger.Errorf("Hash mismatch for accumulated %s: stored %s, got %s", row.ID, row.HashArchivo, hash)
		util.ResponseFailed(ctx, http.StatusConflict, "El documento no superó la verificación de integridad", nil, nil)
		return
	}

	// Re-open, the verification pass consumed the stream.
	object, err = util.OpenS3Object(row.RutaArchivoPdf, ec.app.Config.Minio.BUCKET, ec.app.S3)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	defer object.Close()

	ctx.Header("Content-Type", "application/pdf")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(row.RutaArchivoPdf)))
	if _, err := io.Copy(ctx.Writer, object); err != nil {
		ec.app.Logger.Errorf("Failed to stream document %s: %v", row.ID, err)
	}
}

// DownloadSessionZip bundles every generated document of a session into one
// zip and streams it.
func (ec EmissionController) DownloadSessionZip(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	sesionId := ctx.Param("sesionId")
	if _, _, _, err := ec.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	rows, err := ec.app.Repository.Emission.GetAccumulatedBySession(ctx, nil, sesionId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(rows) == 0 {
		util.ResponseFailed(ctx, http.StatusNotFound, ErrNothingGenerated, nil, nil)
		return
	}

	tempDir, err := os.MkdirTemp(util.GetTempDir(), "zip-"+sesionId+"-*")
	if err != nil {
		if err := os.MkdirAll(util.GetTempDir(), 0755); err == nil {
			tempDir, err = os.MkdirTemp(util.GetTempDir(), "zip-"+sesionId+"-*")
		}
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
			return
		}
	}
	defer os.RemoveAll(tempDir)

	files := make([]string, 0, len(rows))
	for _, row := range rows {
		localPath := filepath.Join(tempDir, filepath.Base(row.RutaArchivoPdf))
		if err := util.DownloadFileFromS3(row.RutaArchivoPdf, localPath, ec.app.Config.Minio.BUCKET, ec.app.S3); err != nil {
			ec.app.Logger.Error(err)
			util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
			return
		}
		files = append(files, localPath)
	}

	zipPath := filepath.Join(tempDir, sesionId+".zip")
	if err := emision.ZipFiles(files, zipPath); err != nil {
		ec.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	ctx.FileAttachment(zipPath, sesionId+".zip")
}

// VerifyDocument re-hashes the archived object and reports whether it still
// matches the hash recorded at generation time.
func (ec EmissionController) VerifyDocument(ctx *gin.Context) {
	row, err := ec.app.Repository.Emission.GetAccumulatedById(ctx, nil, ctx.Param("accumulatedId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	object, err := util.OpenS3Object(row.RutaArchivoPdf, ec.app.Config.Minio.BUCKET, ec.app.S3)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	defer object.Close()

	hash, err := util.HashReaderSHA256(object)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"cuenta":       row.Cuenta,
		"documento":    row.Documento,
		"fechaEmision": row.FechaEmision,
		"valid":        row.HashArchivo == "" || hash == row.HashArchivo,
	})
}
