package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/database"
	"github.com/emisorlabs/emisor/internal/env"
	filestorage "github.com/emisorlabs/emisor/internal/file_storage"
	"github.com/emisorlabs/emisor/internal/mailer"
	"github.com/emisorlabs/emisor/internal/queue"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

const (
	MAX_WORKER = 3
)

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
	v := validator.New()
	if err := util.RegisterCustomValidations(v); err != nil {
		logger.Panicf("Failed to register custom validations: %v", err)
	}

	mail := mailer.NewGmailMailer(cfg.Mail.GMAIL_USERNAME, cfg.Mail.GMAIL_APP_PASSWORD, logger)
	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger, jwtService, s3)
	app := queue.MailConsumerContext{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	logger.Info("RabbitMQ connected \n")
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()

	ctx := context.Background()

	if err := rabbitMQ.ConsumeMailJob(ctx, mailJobHandler, MAX_WORKER, &app); err != nil {
		logger.Fatalf("Failed to consume mail job: %v", err)
	}

	logger.Infof("Started consuming mail job")

	// Block forever to keep the consumer running
	select {}
}

func mailJobHandler(ctx context.Context, jobPayload queue.MailJobPayload, app *queue.MailConsumerContext) (bool, error) {
	switch jobPayload.TemplateFile {
	case mailer.TemplateEmissionSummary:
		var data mailer.EmissionSummaryData
		if err := json.Unmarshal(jobPayload.Data, &data); err != nil {
			return false, fmt.Errorf("failed to unmarshal EmissionSummaryData: %w", err)
		}

		status, err := app.Mailer.Send(jobPayload.TemplateFile, data.Username, jobPayload.ToEmail, data)
		if err != nil {
			return true, fmt.Errorf("failed to send email: %w", err)
		}

		if status != http.StatusOK {
			return true, fmt.Errorf("email sending failed with status: %d", status)
		}

		return true, nil
	default:
		return false, fmt.Errorf("unsupported template: %s", jobPayload.TemplateFile)
	}
}
