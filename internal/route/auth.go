package route

import (
	"github.com/emisorlabs/emisor/internal/controller"
	"github.com/emisorlabs/emisor/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Auth(r *gin.RouterGroup, authController *controller.AuthController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/auth")
	{
		v1.POST("/login", authController.Login)
		v1.POST("/jwt/access/verify/:token", authController.VerifyJwtAccessToken)
		v1.POST("/jwt/refresh", authController.RefreshAccessToken)
	}

	authed := r.Group("/v1/auth")
	authed.Use(middleware.AuthMiddleware)
	{
		authed.POST("/logout", authController.Logout)
		authed.GET("/me", authController.GetMe)
	}
}
