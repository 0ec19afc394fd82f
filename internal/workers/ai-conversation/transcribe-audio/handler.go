package transcribeaudio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/genai"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

const (
	TaskType = "transcribe-audio"
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

const refinementTemplate = `You are a blockchain assistant helping correct voice transcriptions.
The user is likely talking about cryptocurrency transactions.

Original transcription: %q

Correct any misheard cryptocurrency terms and apply blockchain context:

CRYPTO CORRECTIONS:
- "sweet", "swit", "suite" -> "SUI"
- "you ess dee see" -> "USDC"

TRANSACTION CONTEXT:
- If it sounds like a transaction command, make sure numbers and asset names are correct
- "send five sweet" -> "send 5 SUI"
- "swap ten suite" -> "swap 10 SUI"

Keep the original language and intent. Output only the corrected transcription.
`

var labelPattern = regexp.MustCompile(`(?i)^\s*corrected transcription\s*:\s*`)

// stripLabel removes a leading "Corrected transcription:" label and any
// quotes the model wrapped around the text.
func stripLabel(s string) string {
	s = labelPattern.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// languageLabel names the hint for the model; unknown hints are passed
// through as given.
func languageLabel(hint string) string {
	if strings.TrimSpace(hint) == "" {
		return lexicon.English.Name()
	}
	if lang, ok := lexicon.ParseLanguage(hint); ok {
		return lang.Name()
	}
	return strings.TrimSpace(hint)
}

// Transcribe turns recorded audio into text in two stages: a raw
// transcription, then a text-only pass that repairs misheard asset names.
// Nothing is returned unless both stages succeed.
func (h *Handler) Transcribe(ctx context.Context, audio []byte, mimeType, languageHint string) (*models.TranscriptionResult, error) {
	if len(audio) == 0 {
		return nil, errors.NewInvalidRequestError("audio is empty")
	}
	if h.config.MaxAudioBytes > 0 && len(audio) > h.config.MaxAudioBytes {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("audio exceeds %d bytes", h.config.MaxAudioBytes))
	}
	if !validation.IsAudioMIMEType(mimeType) {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("unsupported mime type %q", mimeType))
	}

	raw, err := h.completer.Complete(ctx, genai.Prompt{
		Text:  "Transcribe this audio accurately in this language: " + languageLabel(languageHint),
		Parts: []genai.Part{{MIMEType: strings.TrimSpace(mimeType), Data: audio}},
	})
	if err != nil {
		return nil, errors.NewTranscriptionFailedError("transcribe", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.NewTranscriptionFailedError("transcribe", fmt.Errorf("empty transcription"))
	}

	refined, err := h.completer.Complete(ctx, genai.TextPrompt(fmt.Sprintf(refinementTemplate, raw)))
	if err != nil {
		return nil, errors.NewTranscriptionFailedError("refine", err)
	}
	refined = stripLabel(refined)
	if refined == "" {
		return nil, errors.NewTranscriptionFailedError("refine", fmt.Errorf("empty refinement"))
	}

	text := lexicon.ConvertNumberWords(refined)
	h.logger.Info("audio transcribed", map[string]interface{}{
		"mimeType":  mimeType,
		"audioSize": len(audio),
		"length":    len(text),
	})
	return &models.TranscriptionResult{Transcription: text}, nil
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
	audio, err := DecodeAudio(input.AudioBase64)
	if err != nil {
		return nil, err
	}

	result, err := h.Transcribe(ctx, audio, input.MimeType, input.Language)
	if err != nil {
		return nil, err
	}
	return &Output{Transcription: result.Transcription}, nil
}

// DecodeAudio accepts standard base64, with or without a data: URL prefix.
func DecodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	if encoded == "" {
		return nil, errors.NewInvalidRequestError("audio is empty")
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("audio is not valid base64: %v", err))
	}
	return audio, nil
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
