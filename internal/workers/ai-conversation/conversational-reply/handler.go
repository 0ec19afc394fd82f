package conversationalreply

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
	TaskType = "conversational-reply"
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

const (
	greetingTone = "Warm and enthusiastic, 1-2 sentences. Invite them to send tokens, swap tokens or check their balance."
	questionTone = "Clear, concise and helpful. Explain complex topics simply and keep it short."
)

func (h *Handler) buildPrompt(utterance string, intent models.Classification, history []models.Turn) string {
	tone := questionTone
	if intent == models.ClassGreeting {
		tone = greetingTone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a helpful Sui blockchain assistant.\n\n", h.config.AssistantName)
	fmt.Fprintf(&b, "# TONE\n%s\n\n", tone)

	if turns := lastTurns(history, h.config.HistoryTurns); len(turns) > 0 {
		b.WriteString("# EARLIER IN THIS CONVERSATION\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "# USER'S MESSAGE\n%q\n\n", utterance)
	b.WriteString("Reply in the user's language with plain text only.\n")
	return b.String()
}

func lastTurns(history []models.Turn, n int) []models.Turn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// Respond writes a conversational reply for a question or greeting.
func (h *Handler) Respond(ctx context.Context, utterance string, intent models.Classification) (*models.ConversationResult, error) {
	return h.RespondWithHistory(ctx, utterance, intent, nil)
}

// RespondWithHistory is Respond with prior turns as read-only context.
func (h *Handler) RespondWithHistory(ctx context.Context, utterance string, intent models.Classification, history []models.Turn) (*models.ConversationResult, error) {
	if !intent.Conversational() {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("intent %q is not conversational", intent))
	}

	text, err := h.completer.Complete(ctx, genai.TextPrompt(h.buildPrompt(utterance, intent, history)))
	if err != nil {
		return nil, errors.NewResponseGenerationFailedError(err)
	}

	message := strings.TrimSpace(text)
	if message == "" {
		return nil, errors.NewResponseGenerationFailedError(fmt.Errorf("empty reply"))
	}

	h.logger.Info("conversational reply generated", map[string]interface{}{
		"intent": string(intent),
		"length": len(message),
	})
	return models.NewConversationResult(intent, message), nil
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

	intent, ok := models.ParseClassification(string(input.Intent))
	if !ok {
		intent = models.ClassQuestion
	}

	result, err := h.RespondWithHistory(ctx, input.Utterance, intent, input.History)
	if err != nil {
		return nil, err
	}
	return &Output{
		Type:    result.Type,
		Intent:  result.Intent,
		Message: result.Message,
	}, nil
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
