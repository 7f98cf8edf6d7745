package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/mailer"
	"github.com/emisorlabs/emisor/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RenderConsumerContext carries the dependencies of the render consumer
// process.
type RenderConsumerContext struct {
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Repository *repository.Repository
	Mailer     mailer.Client
	S3         *minio.Client
}

// RenderJobPayload asks the consumer to render every pending row of a
// session. Workers claim rows one by one, so publishing the same session
// twice only speeds it up, it never double-renders.
type RenderJobPayload struct {
	SesionID  string `json:"sesion_id"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	Retry     int    `json:"retry" default:"0"`
}

func NewRenderJobPayload(sesionId, projectId, userId string) RenderJobPayload {
	return RenderJobPayload{
		SesionID:  sesionId,
		ProjectID: projectId,
		UserID:    userId,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
}

func (r *RabbitMQ) PublishRenderJob(payload RenderJobPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal render job payload: %w", err)
	}

	return r.Publish(QueueEmissionRender, body)
}

type RenderJobHandler func(jobPayload RenderJobPayload, app *RenderConsumerContext) (bool, error)

func (r *RabbitMQ) ConsumeRenderJob(handler RenderJobHandler, maxWorker int, app *RenderConsumerContext) error {
	msgs, err := r.Consume(QueueEmissionRender)
	if err != nil {
		return err
	}

	for i := 0; i < maxWorker; i++ {
		go func(workerID int) {
			for msg := range msgs {
				if msg.Body == nil {
					log.Printf("[Worker %d] Received empty message body", workerID)
					_ = r.Nack(msg, false)
					continue
				}

				var jobPayload RenderJobPayload
				if err := json.Unmarshal(msg.Body, &jobPayload); err != nil {
					log.Printf("[Worker %d] Invalid payload: %v", workerID, err)
					_ = r.Nack(msg, false)
					continue
				}

				jobPayload.Retry++
				workerPrefix := fmt.Sprintf("[Worker %d: Retry %d]", workerID, jobPayload.Retry)

				shouldRequeue, err := handler(jobPayload, app)
				if err != nil {
					log.Printf("%s Handler error processing render job for session %s: %v",
						workerPrefix, jobPayload.SesionID, err)

					if !shouldRequeue || jobPayload.Retry >= MAX_QUEUE_RETRY {
						log.Printf("%s Dropping render job for session %s (retry: %d, shouldRequeue: %v)",
							workerPrefix, jobPayload.SesionID, jobPayload.Retry, shouldRequeue)
						_ = r.Nack(msg, false)
						continue
					}

					requeueRenderJob(r, workerPrefix, msg, jobPayload)
					continue
				}

				log.Printf("%s Finished render job for session %s", workerPrefix, jobPayload.SesionID)
				_ = r.Ack(msg)
			}
		}(i + 1)
	}

	return nil
}

func requeueRenderJob(rabbitMQ *RabbitMQ, workerPrefix string, msg amqp091.Delivery, jobPayload RenderJobPayload) {
	payloadBytes, err := json.Marshal(jobPayload)
	if err != nil {
		log.Printf("%s Failed to marshal render payload for requeue: %v", workerPrefix, err)
		_ = rabbitMQ.Nack(msg, false)
		return
	}

	if err := rabbitMQ.Publish(QueueEmissionRender, payloadBytes); err != nil {
		log.Printf("%s Failed to requeue render job for session %s: %v", workerPrefix, jobPayload.SesionID, err)
		_ = rabbitMQ.Nack(msg, false)
		return
	}

	log.Printf("%s Requeued render job for session %s", workerPrefix, jobPayload.SesionID)
	_ = rabbitMQ.Ack(msg)
}
