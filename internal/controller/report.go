package controller

import (
	"net/http"
	"time"

	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/gin-gonic/gin"
)

type ReportController struct {
	*baseController
}

// Dashboard window in days; the operator view shows the trailing month.
const dashboardDays = 30

func (rc ReportController) GetUserActivity(ctx *gin.Context) {
	authUser, err := rc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasRole(authUser.Rol, []constant.Role{constant.RoleSuperadmin, constant.RoleAnalista}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	activity, err := rc.app.Repository.Report.GetUserActivity(ctx, nil)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"activity": activity,
	})
}

func (rc ReportController) GetProjectSummary(ctx *gin.Context) {
	projectId := ctx.Param("projectId")
	_, role, _, err := rc.getProjectRole(ctx, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
		return
	}
	if !util.HasPermission(role, []constant.ProjectPermission{constant.StatsView}) {
		util.ResponseFailed(ctx, http.StatusForbidden, ErrNoProjectPermission, nil, nil)
		return
	}

	summary, err := rc.app.Repository.Report.GetProjectSummary(ctx, nil, projectId)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"summary": summary,
	})
}

// GetDashboard aggregates generated documents over the trailing 30 days,
// both per day and per document type. Computed on demand.
func (rc ReportController) GetDashboard(ctx *gin.Context) {
	if _, err := rc.getAuthUser(ctx); err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}

	projectId := ctx.Query("projectId")
	if projectId != "" {
		if _, _, _, err := rc.getProjectRole(ctx, projectId); err != nil {
			util.ResponseFailed(ctx, http.StatusNotFound, "", util.GenerateErrorMessages(err), nil)
			return
		}
	}

	daily, err := rc.app.Repository.Report.GetDailyGenerated(ctx, nil, projectId, dashboardDays)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	since := time.Now().AddDate(0, 0, -dashboardDays)
	byType, err := rc.app.Repository.Report.GetGeneratedByDocumentType(ctx, nil, projectId, since)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"daily":  daily,
		"byType": byType,
		"since":  since,
	})
}

func (rc ReportController) GetAuditLog(ctx *gin.Context) {
	authUser, err := rc.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return
	}
	if authUser.Rol != constant.RoleSuperadmin {
		util.ResponseFailed(ctx, http.StatusForbidden, "Solo un SUPERADMIN puede consultar la bitácora", nil, nil)
		return
	}

	page, pageSize := util.ParsePagination(ctx)

	if userId := ctx.Query("userId"); userId != "" {
		entries, total, err := rc.app.Repository.Audit.GetByUserId(ctx, nil, userId, page, pageSize)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
			return
		}
		util.ResponseSuccess(ctx, gin.H{
			"entries":   entries,
			"total":     total,
			"page":      page,
			"pageSize":  pageSize,
			"totalPage": util.CalculateTotalPage(total, pageSize),
		})
		return
	}

	entidad := constant.AuditEntity(ctx.Query("entidad"))
	entries, total, err := rc.app.Repository.Audit.GetByEntity(ctx, nil, entidad, ctx.Query("entidadId"), page, pageSize)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "", util.GenerateErrorMessages(err), nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"pageSize":  pageSize,
		"totalPage": util.CalculateTotalPage(total, pageSize),
	})
}
