package route

import (
	"github.com/emisorlabs/emisor/internal/controller"
	"github.com/emisorlabs/emisor/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Projects(r *gin.RouterGroup, pc *controller.ProjectController, tc *controller.TemplateController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/projects")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", pc.CreateProject)
		v1.GET("", pc.GetProjects)
		v1.GET("/:projectId", pc.GetProjectById)
		v1.GET("/:projectId/role", pc.GetProjectRole)
		v1.PATCH("/:projectId", pc.UpdateProject)
		v1.DELETE("/:projectId", pc.DeleteProject)

		v1.GET("/:projectId/members", pc.GetMembers)
		v1.POST("/:projectId/members", pc.AssignUser)

		v1.POST("/:projectId/padron", pc.UploadPadron)
		v1.GET("/:projectId/padron", pc.GetPadron)
		v1.DELETE("/:projectId/padron/:cuenta", pc.DeletePadronRow)

		v1.POST("/:projectId/templates", tc.CreateTemplate)
		v1.GET("/:projectId/templates", tc.GetTemplates)
		v1.GET("/:projectId/templates/:templateId", tc.GetTemplateById)
		v1.PATCH("/:projectId/templates/:templateId", tc.UpdateTemplate)
		v1.DELETE("/:projectId/templates/:templateId", tc.DeleteTemplate)
	}
}
