package appcontext

import (
	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/mailer"
	"github.com/emisorlabs/emisor/internal/queue"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	// Logger lol....
	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Mailer handles email-sending functions.
	Mailer mailer.Client

	// JWTService manages JWT operations for authentication such as generate, verify, refresh token.
	JWTService auth.JWTInterface

	// Queue publishes render and mail jobs to RabbitMQ.
	Queue *queue.RabbitMQ

	S3 *minio.Client
}
