package route

import (
	"github.com/emisorlabs/emisor/internal/controller"
	"github.com/emisorlabs/emisor/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Reports(r *gin.RouterGroup, rc *controller.ReportController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/reportes")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("/usuarios", rc.GetUserActivity)
		v1.GET("/proyectos/:projectId", rc.GetProjectSummary)
		v1.GET("/dashboard", rc.GetDashboard)
		v1.GET("/bitacora", rc.GetAuditLog)
	}
}
