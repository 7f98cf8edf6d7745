package main

import (
	appcontext "github.com/emisorlabs/emisor/internal/app_context"
	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/controller"
	"github.com/emisorlabs/emisor/internal/database"
	"github.com/emisorlabs/emisor/internal/env"
	filestorage "github.com/emisorlabs/emisor/internal/file_storage"
	"github.com/emisorlabs/emisor/internal/mailer"
	"github.com/emisorlabs/emisor/internal/middleware"
	"github.com/emisorlabs/emisor/internal/queue"
	ratelimiter "github.com/emisorlabs/emisor/internal/rate_limiter"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/emisorlabs/emisor/internal/route"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	s3, err := filestorage.NewMinioClient(&cfg.Minio)
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterCustomValidations(v); err != nil {
			logger.Panicf("Failed to register custom validations: %v", err)
		}
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()
	logger.Info("RabbitMQ connected \n")

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger, jwtService, s3)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
		JWTService: jwtService,
		Queue:      rabbitMQ,
		S3:         s3,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Auth(rApi, _controller.Auth, _middleware)
	route.V1_Users(rApi, _controller.User, _middleware)
	route.V1_Projects(rApi, _controller.Project, _controller.Template, _middleware)
	route.V1_Emissions(rApi, _controller.Emission, _middleware)
	route.V1_Reports(rApi, _controller.Report, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v \n", err)
	}
}
