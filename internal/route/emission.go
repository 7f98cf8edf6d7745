package route

import (
	"github.com/emisorlabs/emisor/internal/controller"
	"github.com/emisorlabs/emisor/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Emissions(r *gin.RouterGroup, ec *controller.EmissionController, middleware *middleware.Middleware) {
	// Public verification endpoint, reachable from a scanned document.
	r.GET("/v1/emisiones/verificar/:accumulatedId", ec.VerifyDocument)

	v1 := r.Group("/v1/projects/:projectId/emisiones")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("/lote", ec.UploadBatch)
		v1.GET("/sesiones/:sesionId/staged", ec.GetStagedRows)
		v1.POST("/sesiones/:sesionId/promover", ec.PromoteSession)
		v1.POST("/sesiones/:sesionId/generar", ec.StartRender)
		v1.GET("/sesiones/:sesionId/status", ec.GetSessionStatus)
		v1.GET("/sesiones/:sesionId/registros", ec.GetSessionRows)
		v1.GET("/sesiones/:sesionId/zip", ec.DownloadSessionZip)
		v1.POST("/registros/:emissionId/reintentar", ec.RetryErrored)

		v1.GET("/acumuladas", ec.GetAccumulated)
		v1.GET("/acumuladas/:accumulatedId/descargar", ec.DownloadDocument)
	}
}
