package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"buildportal/internal/directory"
	"buildportal/internal/docstore"
	workflowrepo "buildportal/internal/workflow/repository"
	"buildportal/platform/config"
	"buildportal/platform/logger"
)

// Pusher delivers a workflow message to an external push channel.
// Optional; deployments without one fall back to email only.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, subject, content string) error
}

// Worker consumes the dispatch queue and delivers workflow messages to
// each recipient's email address.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *workflowrepo.Repository
	users  *directory.Repository
	email  EmailSender
	pusher Pusher // optional
	log    *logger.Logger
}

// NewWorker creates an asynq worker from the scheduler configuration.
func NewWorker(cfg config.SchedulerConfig, store docstore.Store, email EmailSender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetDispatchQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetDispatchConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   workflowrepo.New(store),
		users:  directory.NewRepository(store),
		email:  email,
		log:    log,
	}

	mux.HandleFunc(TaskWorkflowMessageDelivery, w.handleWorkflowMessageDelivery)

	return w, nil
}

// SetPusher injects the push channel.
func (w *Worker) SetPusher(p Pusher) {
	w.pusher = p
}

func (w *Worker) handleWorkflowMessageDelivery(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWorkflowMessageDeliveryPayload(task)
	if err != nil {
		return err
	}
	messageID, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return err
	}

	msg, err := w.repo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		// The message vanished; retrying will not bring it back.
		w.log.Warn("workflow message missing for delivery", "messageId", messageID)
		return nil
	}

	for _, recipientID := range msg.Recipients {
		user, err := w.users.GetByID(ctx, recipientID.String())
		if err != nil {
			return err
		}
		if user == nil || !user.Active {
			continue
		}

		if user.Email != "" {
			if err := w.email.SendWorkflowMessage(ctx, user.Email, msg.Subject, msg.Content, msg.Priority); err != nil {
				w.log.Error("email delivery failed",
					"messageId", messageID,
					"recipient", recipientID,
					"error", err,
				)
			}
		}
		if w.pusher != nil {
			if err := w.pusher.Push(ctx, recipientID, msg.Subject, msg.Content); err != nil {
				w.log.Error("push delivery failed",
					"messageId", messageID,
					"recipient", recipientID,
					"error", err,
				)
			}
		}
	}
	return nil
}

// Run serves the dispatch queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("dispatch worker stopped", "error", err)
	}
}
