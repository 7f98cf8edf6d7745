package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/emisorlabs/emisor/pkg/emision"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TemplateController struct {
	*baseController
}

const (
	ErrTemplateFileRequired                = "se requiere el archivo PDF de la plantilla"
	ErrTemplateFileIsInvalidOrNotSupported = "el archivo de plantilla es inválido o no soportado"
	ErrInvalidPlaceholderPage              = "la página %d del marcador excede las %d páginas de la plantilla"
)

func (tc TemplateController) CreateTemplate(ctx *gin.Context) {
	type Request struct {
		Nombre        string `form:"nombre" binding:"required,strNotEmpty,max=255"`
		Descripcion   string `form:"descripcion"`
		Configuracion string `form:"configuracion" binding:"required,strNotEmpty"`
	}
	var body Request

	projectId := ctx.Param("projectId")
	authUser, role, project, err := tc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.TemplateManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}
	if project.IsDeleted {
		util.ResponseFailed(ctx, http.StatusConflict, "El proyecto está eliminado", nil, nil)
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	placeholders, err := emision.ParsePlaceholderConfig([]byte(body.Configuracion))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Configuración inválida", util.GenerateErrorMessages(err), nil)
		return
	}

	fileHeader, err := ctx.FormFile("templateFile")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrTemplateFileRequired, util.GenerateErrorMessages(err), nil)
		return
	}

	// create temp file for validate and optimized pdf
	tempFile, err := util.CreateTemp("template-*.pdf")
	if err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	tempFile.Close()
	defer os.Remove(tempFile.Name())

	// Optimize also validate the file
	if err := emision.OptimizePdf(*fileHeader, tempFile.Name()); err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrTemplateFileIsInvalidOrNotSupported, util.GenerateErrorMessages(err), nil)
		return
	}

	optimized, err := os.Open(tempFile.Name())
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}
	pageCount, err := emision.GetPageCount(optimized)
	optimized.Close()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrTemplateFileIsInvalidOrNotSupported, util.GenerateErrorMessages(err), nil)
		return
	}

	for _, binding := range placeholders.Placeholders {
		if binding.Pagina > pageCount {
			util.ResponseFailed(ctx, http.StatusBadRequest,
				fmt.Sprintf(ErrInvalidPlaceholderPage, binding.Pagina, pageCount), nil, nil)
			return
		}
	}

	originInfo, err := util.UploadFileToS3ByFileHeader(fileHeader, &util.FileUploadOptions{
		DirectoryPath: util.GetTemplateDirectoryPath(projectId),
		UniquePrefix:  true,
		Bucket:        tc.app.Config.Minio.BUCKET,
		S3:            tc.app.S3,
	})
	if err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	baseInfo, err := util.UploadFileToS3ByPath(tempFile.Name(), &util.FileUploadOptions{
		DirectoryPath: util.GetTemplateDirectoryPath(projectId),
		UniquePrefix:  true,
		Bucket:        tc.app.Config.Minio.BUCKET,
		S3:            tc.app.S3,
	})
	if err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	tamanoPagina, _ := json.Marshal(gin.H{"paginas": pageCount})

	template, err := tc.app.Repository.Template.Create(ctx, nil, tc.auditContext(ctx, authUser), &model.Template{
		ProjectID:      projectId,
		Nombre:         body.Nombre,
		Descripcion:    body.Descripcion,
		ArchivoOrigen:  originInfo.Key,
		ArchivoPdfBase: baseInfo.Key,
		Configuracion:  model.JSON(body.Configuracion),
		TamanoPagina:   model.JSON(tamanoPagina),
	})
	if err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": template,
	})
}

func (tc TemplateController) GetTemplates(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := tc.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	templates, err := tc.app.Repository.Template.GetByProjectId(ctx, nil, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"templates": templates,
	})
}

func (tc TemplateController) GetTemplateById(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := tc.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	template, err := tc.app.Repository.Template.GetById(ctx, nil, ctx.Param("templateId"))
	if err != nil || template.ProjectID != projectId {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(errors.New("plantilla no encontrada")), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": template,
	})
}

func (tc TemplateController) UpdateTemplate(ctx *gin.Context) {
	type Request struct {
		Nombre        string `json:"nombre" binding:"required,strNotEmpty,max=255"`
		Descripcion   string `json:"descripcion"`
		Configuracion string `json:"configuracion"`
	}
	var body Request

	projectId := ctx.Param("projectId")
	authUser, role, _, err := tc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.TemplateManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	template, err := tc.app.Repository.Template.Update(ctx, nil, tc.auditContext(ctx, authUser), ctx.Param("templateId"), model.Template{
		Nombre:        body.Nombre,
		Descripcion:   body.Descripcion,
		Configuracion: model.JSON(body.Configuracion),
	})
	if err != nil {
		tc.app.Logger.Error(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": template,
	})
}

func (tc TemplateController) DeleteTemplate(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	authUser, role, _, err := tc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.TemplateManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := tc.app.Repository.Template.SoftDelete(ctx, nil, tc.auditContext(ctx, authUser), ctx.Param("templateId")); err != nil {
		tc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}
