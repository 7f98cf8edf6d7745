package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/database"
	"github.com/emisorlabs/emisor/internal/env"
	filestorage "github.com/emisorlabs/emisor/internal/file_storage"
	"github.com/emisorlabs/emisor/internal/mailer"
	"github.com/emisorlabs/emisor/internal/model"
	"github.com/emisorlabs/emisor/internal/queue"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/emisorlabs/emisor/internal/util"
	"github.com/emisorlabs/emisor/pkg/emision"
	"github.com/google/uuid"
	"gorm.io/gorm"
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
	logger.Info("Minio connected \n")

	jwtService := auth.NewJwt(cfg.Auth, logger)
	repo := repository.NewRepository(db, logger, jwtService, s3)
	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	app := queue.RenderConsumerContext{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
		S3:         s3,
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

	handler := func(jobPayload queue.RenderJobPayload, app *queue.RenderConsumerContext) (bool, error) {
		return renderSessionJobHandler(jobPayload, app, rabbitMQ)
	}

	if err := rabbitMQ.ConsumeRenderJob(handler, cfg.Emission.MaxRenderWorkers, &app); err != nil {
		logger.Fatalf("Failed to consume render job: %v", err)
	}

	logger.Infof("Started consuming render jobs with %d workers", cfg.Emission.MaxRenderWorkers)

	// Block forever to keep the consumer running
	select {}
}

// renderSessionJobHandler drains the pending rows of one session. Rows are
// claimed one at a time, so several workers or consumer processes can chew
// on the same session without rendering a row twice.
func renderSessionJobHandler(jobPayload queue.RenderJobPayload, app *queue.RenderConsumerContext, rabbitMQ *queue.RabbitMQ) (bool, error) {
	ctx := context.Background()

	user, err := app.Repository.User.GetById(ctx, nil, jobPayload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			app.Logger.Error("User not found: ", jobPayload.UserID)
			return false, errors.New("user not found")
		}
		return true, err
	}

	project, err := app.Repository.Project.GetLiveById(ctx, nil, jobPayload.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repository.ErrProjectDeleted) {
			app.Logger.Error("Project not usable: ", jobPayload.ProjectID)
			return false, err
		}
		return true, err
	}

	session := newSessionRenderer(app, project, jobPayload.SesionID)
	defer session.cleanup()

	claimedBy := fmt.Sprintf("render-%s", uuid.NewString())
	rendered := 0

	for {
		row, err := app.Repository.Emission.ClaimNext(ctx, jobPayload.SesionID, claimedBy, app.Config.Emission.ClaimTimeout)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return true, err
		}

		if err := session.renderRow(ctx, row, claimedBy, jobPayload.UserID); err != nil {
			app.Logger.Errorf("Render failed for cuenta %s: %v", row.Cuenta, err)
			if markErr := app.Repository.Emission.MarkError(ctx, row.ID, claimedBy, err.Error()); markErr != nil {
				app.Logger.Errorf("Failed to mark render error on %s: %v", row.ID, markErr)
			}
			continue
		}
		rendered++
	}

	status, err := app.Repository.Emission.GetSessionStatus(ctx, nil, jobPayload.SesionID)
	if err != nil {
		app.Logger.Errorf("Failed to read session status: %v", err)
		return false, nil
	}

	app.Logger.Infof("Session %s: rendered %d, status %+v", jobPayload.SesionID, rendered, status)

	if status.Pendientes == 0 {
		notifySessionFinished(app, rabbitMQ, user, project, status)
	}

	return false, nil
}

func notifySessionFinished(app *queue.RenderConsumerContext, rabbitMQ *queue.RabbitMQ, user *model.User, project *model.Project, status *repository.SessionStatus) {
	payload, err := queue.NewEmissionSummaryMailJob(user.Email, mailer.EmissionSummaryData{
		Username:  user.Username,
		Proyecto:  project.Nombre,
		SesionID:  status.SesionID,
		Generadas: status.Generadas,
		ConError:  status.ConError,
		Fecha:     time.Now().Format(util.DateLayout),
	})
	if err != nil {
		app.Logger.Errorf("Failed to build summary mail job: %v", err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		app.Logger.Errorf("Failed to marshal summary mail job: %v", err)
		return
	}

	if err := rabbitMQ.Publish(queue.QueueMail, body); err != nil {
		app.Logger.Errorf("Failed to queue summary mail: %v", err)
	}
}

// sessionRenderer caches the per-template artifacts (downloaded base PDF and
// parsed placeholder config) across the rows of a session.
type sessionRenderer struct {
	app       *queue.RenderConsumerContext
	project   *model.Project
	sesionId  string
	renderers map[string]*emision.Renderer
	tempFiles []string
}

func newSessionRenderer(app *queue.RenderConsumerContext, project *model.Project, sesionId string) *sessionRenderer {
	return &sessionRenderer{
		app:       app,
		project:   project,
		sesionId:  sesionId,
		renderers: make(map[string]*emision.Renderer),
	}
}

func (s *sessionRenderer) rendererFor(ctx context.Context, templateId string) (*emision.Renderer, error) {
	if renderer, ok := s.renderers[templateId]; ok {
		return renderer, nil
	}

	template, err := s.app.Repository.Template.GetById(ctx, nil, templateId)
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", templateId, err)
	}

	placeholders, err := emision.ParsePlaceholderConfig(template.Configuracion)
	if err != nil {
		return nil, err
	}

	templateFile, err := util.CreateTemp("emisor-template-*.pdf")
	if err != nil {
		return nil, err
	}
	templateFile.Close()

	basePath := template.ArchivoPdfBase
	if basePath == "" {
		basePath = template.ArchivoOrigen
	}
	if err := util.DownloadFileFromS3(basePath, templateFile.Name(), s.app.Config.Minio.BUCKET, s.app.S3); err != nil {
		os.Remove(templateFile.Name())
		return nil, fmt.Errorf("failed to download template pdf: %w", err)
	}
	s.tempFiles = append(s.tempFiles, templateFile.Name())

	renderer := emision.NewRenderer(*emision.NewDefaultConfig(), templateFile.Name(), s.sesionId, placeholders)
	s.renderers[templateId] = renderer
	return renderer, nil
}

func (s *sessionRenderer) renderRow(ctx context.Context, row *model.EmissionFinal, claimedBy, generatingUserId string) error {
	renderer, err := s.rendererFor(ctx, row.TemplateID)
	if err != nil {
		return err
	}

	data := emision.RenderData(row.DatosJSON, row.Cuenta, string(row.Documento), row.Pmo, row.Visita, row.FechaEmision, row.CodigoBarras)
	if pattern := s.app.Config.Emission.VerifyURLPattern; pattern != "" {
		// The archived row keeps this id, so the link stays valid.
		data[emision.VerifyURLField] = fmt.Sprintf(pattern, row.ID)
	}

	outPath, err := renderer.Render(row.Cuenta, data, row.CodigoBarras)
	if err != nil {
		return err
	}
	defer os.Remove(outPath)

	hash, err := util.HashFileSHA256(outPath)
	if err != nil {
		return err
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		return err
	}

	info, err := util.UploadFileToS3ByPath(outPath, &util.FileUploadOptions{
		DirectoryPath: util.GetEmissionDirectoryPath(s.project.ID, s.sesionId),
		Bucket:        s.app.Config.Minio.BUCKET,
		S3:            s.app.S3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload rendered document: %w", err)
	}

	_, err = s.app.Repository.Emission.Archive(ctx, row, claimedBy, info.Key, stat.Size(), hash, generatingUserId)
	return err
}

func (s *sessionRenderer) cleanup() {
	for _, renderer := range s.renderers {
		renderer.Cleanup()
	}
	for _, file := range s.tempFiles {
		os.Remove(file)
	}
}
