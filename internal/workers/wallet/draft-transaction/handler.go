package drafttransaction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/models"
)

const (
	TaskType = "draft-transaction"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ContactSource supplies an owner's stored address book.
type ContactSource interface {
	Resolver(ctx context.Context, owner string) (*contacts.SnapshotResolver, error)
}

type Handler struct {
	config    *Config
	drafter   *Drafter
	directory ContactSource
	errors    *errors.ErrorHandler
	logger    Logger
}

// NewHandler wires a drafter over builder, or over the HTTP builder at
// config.BuilderBaseURL when builder is nil. directory may be nil.
func NewHandler(config *Config, builder Builder, directory ContactSource, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	if builder == nil {
		builder = NewHTTPBuilder(config)
	}
	return &Handler{
		config:    config,
		drafter:   NewDrafter(builder, l),
		directory: directory,
		errors:    errors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Drafter() *Drafter {
	return h.drafter
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	resolver, err := h.resolverFor(ctx, input)
	if err != nil {
		return nil, err
	}

	handle, intent, err := h.drafter.Draft(ctx, input.Intent.Intent, resolver)
	if err != nil {
		return nil, err
	}
	return &Output{
		Transaction: handle,
		Intent:      models.IntentEnvelope{Intent: intent},
	}, nil
}

// resolverFor prefers inline contacts, then the owner's stored book.
func (h *Handler) resolverFor(ctx context.Context, input *Input) (contacts.Resolver, error) {
	if len(input.Contacts) > 0 || input.Owner == "" || h.directory == nil {
		return contacts.NewSnapshotResolver(input.Contacts), nil
	}
	r, err := h.directory.Resolver(ctx, input.Owner)
	if err != nil {
		h.logger.Warn("contact directory unavailable, resolving without it", map[string]interface{}{
			"owner": input.Owner,
			"error": err.Error(),
		})
		return contacts.NewSnapshotResolver(nil), nil
	}
	return r, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
