package classifyintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/genai"
	"milo-interpreter/internal/models"
)

const (
	TaskType = "classify-intent"
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

const rubric = `Classify the user's intent.
- "command": they want to PERFORM A BLOCKCHAIN ACTION (send, transfer, swap, check balance)
- "question": they are asking HOW or WHAT about blockchain (even if it contains action words)
- "greeting": simple hello, hi, how are you, thanks

Respond with ONLY JSON: {"intent":"command"|"question"|"greeting"}

Message: %q
`

func buildPrompt(utterance string) string {
	return fmt.Sprintf(rubric, utterance)
}

// Classify labels a raw utterance. Conversation history is never part of
// the prompt.
func (h *Handler) Classify(ctx context.Context, utterance string) (models.Classification, error) {
	raw, err := h.completer.Complete(ctx, genai.JSONPrompt(buildPrompt(utterance)))
	if err != nil {
		return "", errors.NewClassificationFailedError(err)
	}

	var reply struct {
		Intent interface{} `json:"intent"`
	}
	if err := genai.ParseInto(raw, &reply); err != nil {
		return "", errors.NewClassificationFailedError(err)
	}

	value, _ := reply.Intent.(string)
	class, ok := models.ParseClassification(value)
	if !ok {
		return "", errors.NewUnknownClassificationError(fmt.Sprint(reply.Intent))
	}

	h.logger.Info("utterance classified", map[string]interface{}{
		"intent": string(class),
	})
	return class, nil
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

	class, err := h.Classify(ctx, input.Utterance)
	if err != nil {
		return nil, err
	}
	return &Output{Intent: class}, nil
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
