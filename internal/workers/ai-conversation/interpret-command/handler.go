package interpretcommand

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/genai"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

const (
	TaskType = "interpret-command"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	completer genai.Completer
	errors    *errors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, completer genai.Completer, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		completer: completer,
		errors:    errors.NewErrorHandler(l),
		logger:    l,
	}
}

// Interpret turns a command utterance into a validated intent. Rejected
// commands come back as an ErrorIntent in the utterance's language; an
// error is returned only when the model could not be used at all.
func (h *Handler) Interpret(ctx context.Context, utterance string, book []models.Contact) (models.Intent, error) {
	norm := lexicon.Normalize(utterance)
	for _, c := range norm.Corrections {
		metrics.AssetCorrections.WithLabelValues(string(c.To), "advisory").Inc()
	}

	raw, err := h.completer.Complete(ctx, genai.JSONPrompt(buildPrompt(h.config.AssistantName, norm, book)))
	if err != nil {
		return nil, errors.NewCommandInterpretationFailedError(err)
	}

	obj, err := genai.ParseJSON(raw)
	if err != nil {
		return nil, errors.NewCommandInterpretationFailedError(err)
	}
	if err := outputSchema.Check(obj); err != nil {
		return nil, errors.NewCommandInterpretationFailedError(err)
	}

	intent := toIntent(ctx, obj, newGrounding(utterance, norm, book), contacts.NewSnapshotResolver(book))

	h.logger.Info("command interpreted", map[string]interface{}{
		"action":      intent.Action(),
		"language":    string(norm.Language),
		"corrections": len(norm.Corrections),
	})
	return intent, nil
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
	if strings.TrimSpace(input.Utterance) == "" {
		return nil, errors.NewInvalidRequestError("utterance is required")
	}

	intent, err := h.Interpret(ctx, input.Utterance, input.Contacts)
	if err != nil {
		return nil, err
	}
	return &Output{Intent: models.IntentEnvelope{Intent: intent}}, nil
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
