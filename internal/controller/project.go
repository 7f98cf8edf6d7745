package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/emisorlabs/emisor/pkg/emision"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectController struct {
	*baseController
}

const (
	ErrNoProjectPermission = "no tiene permisos sobre este proyecto"
	ErrPadronFileRequired  = "se requiere un archivo CSV del padrón"
)

func (pc ProjectController) CreateProject(ctx *gin.Context) {
	type Request struct {
		Nombre           string          `json:"nombre" binding:"required,strNotEmpty,max=255"`
		Descripcion      string          `json:"descripcion"`
		LogoURL          string          `json:"logoUrl"`
		EstructuraPadron json.RawMessage `json:"estructuraPadron" binding:"required"`
	}
	var body Request

	authUser, err := pc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasRole(authUser.Rol, []constant.Role{constant.RoleSuperadmin, constant.RoleAnalista}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, err := pc.app.Repository.Project.Create(ctx, nil, pc.auditContext(ctx, authUser), &model.Project{
		Nombre:           body.Nombre,
		Descripcion:      body.Descripcion,
		LogoURL:          body.LogoURL,
		EstructuraPadron: model.JSON(body.EstructuraPadron),
	})
	if err != nil {
		pc.app.Logger.Error(err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.ResponseFailed(ctx, http.StatusConflict, "Ya existe un proyecto con ese nombre", nil, nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": project,
	})
}

func (pc ProjectController) GetProjects(ctx *gin.Context) {
	if _, err := pc.getAuthUser(ctx); err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	page, pageSize := util.ParsePagination(ctx)
	projects, total, err := pc.app.Repository.Project.GetList(ctx, nil, ctx.Query("search"), page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"projects":  projects,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": util.CalculateTotalPage(total, pageSize),
	})
}

func (pc ProjectController) GetProjectById(ctx *gin.Context) {
	_, _, project, err := pc.getProjectRole(ctx, ctx.Param("projectId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": project,
	})
}

func (pc ProjectController) GetProjectRole(ctx *gin.Context) {
	_, role, _, err := pc.getProjectRole(ctx, ctx.Param("projectId"))
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"role": role,
	})
}

func (pc ProjectController) UpdateProject(ctx *gin.Context) {
	type Request struct {
		Descripcion string `json:"descripcion"`
		LogoURL     string `json:"logoUrl"`
	}
	var body Request

	projectId := ctx.Param("projectId")
	authUser, role, _, err := pc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.MemberManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	project, err := pc.app.Repository.Project.Update(ctx, nil, pc.auditContext(ctx, authUser), projectId, model.Project{
		Descripcion: body.Descripcion,
		LogoURL:     body.LogoURL,
	})
	if err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": project,
	})
}

func (pc ProjectController) DeleteProject(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	authUser, err := pc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := pc.app.Repository.Project.SoftDelete(ctx, nil, pc.auditContext(ctx, authUser), projectId); err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (pc ProjectController) AssignUser(ctx *gin.Context) {
	type Request struct {
		UserID        string `json:"userId" binding:"required,strNotEmpty"`
		RolEnProyecto string `json:"rolEnProyecto" binding:"required,strNotEmpty"`
	}
	var body Request

	projectId := ctx.Param("projectId")
	authUser, role, _, err := pc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.MemberManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if !constant.Role(body.RolEnProyecto).Valid() {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Rol inválido", nil, nil)
		return
	}

	if err := pc.app.Repository.Project.AssignUser(ctx, nil, pc.auditContext(ctx, authUser), projectId, body.UserID, body.RolEnProyecto); err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

func (pc ProjectController) GetMembers(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := pc.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	members, err := pc.app.Repository.Project.GetMembers(ctx, nil, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"members": members,
	})
}

// UploadPadron loads or refreshes padron rows from an uploaded CSV. The file
// must carry a header naming the declared columns; each row is validated
// against the project's descriptor and accepted or rejected independently.
func (pc ProjectController) UploadPadron(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	_, role, project, err := pc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.PadronManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}
	if project.IsDeleted {
		util.ResponseFailed(ctx, http.StatusConflict, "El proyecto está eliminado", nil, nil)
		return
	}

	fileHeader, err := ctx.FormFile("padronFile")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrPadronFileRequired, util.GenerateErrorMessages(err), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "", util.GenerateErrorMessages(err), nil)
		return
	}
	defer file.Close()

	records, err := emision.ReadCSV(file)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Archivo CSV inválido", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(records) < 2 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "El archivo no contiene filas", nil, nil)
		return
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		datos := make(map[string]any, len(header))
		for i, column := range header {
			if i < len(record) {
				datos[emision.SanitizeColumnName(column)] = record[i]
			}
		}
		rows = append(rows, datos)
	}

	outcomes, err := pc.app.Repository.Padron.UpsertRows(ctx, nil, project, rows)
	if err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	loaded := 0
	for _, outcome := range outcomes {
		if outcome.Loaded {
			loaded++
		}
	}

	util.ResponseSuccess(ctx, gin.H{
		"loaded":   loaded,
		"rejected": len(outcomes) - loaded,
		"outcomes": outcomes,
	})
}

func (pc ProjectController) GetPadron(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	if _, _, _, err := pc.getProjectRole(ctx, projectId); err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}

	page, pageSize := util.ParsePagination(ctx)
	rows, total, err := pc.app.Repository.Padron.GetList(ctx, nil, projectId, ctx.Query("search"), page, pageSize)
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

func (pc ProjectController) DeletePadronRow(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	_, role, _, err := pc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.PadronManage}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	if err := pc.app.Repository.Padron.SoftDeleteByCuenta(ctx, nil, projectId, ctx.Param("cuenta")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, nil)
}
