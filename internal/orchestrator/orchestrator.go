// Package orchestrator runs one interpreter turn: classify the utterance,
// then hand it to the command interpreter or the conversational responder.
// Audio turns are transcribed first.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"milo-interpreter/internal/audit"
	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/common/observability"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

// FallbackMessage answers utterances that could not be classified.
const FallbackMessage = "I'm not sure how to help with that."

const (
	EntryText  = "text"
	EntryAudio = "audio"

	OutcomeFallback      = "fallback"
	OutcomeFailure       = "failure"
	OutcomeTranscription = "transcription"
)

type Classifier interface {
	Classify(ctx context.Context, utterance string) (models.Classification, error)
}

type Interpreter interface {
	Interpret(ctx context.Context, utterance string, book []models.Contact) (models.Intent, error)
}

type Responder interface {
	RespondWithHistory(ctx context.Context, utterance string, intent models.Classification, history []models.Turn) (*models.ConversationResult, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, languageHint string) (*models.TranscriptionResult, error)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Dependencies struct {
	Classifier    Classifier
	Interpreter   Interpreter
	Responder     Responder
	Transcriber   Transcriber
	Recorder      audit.Recorder        // optional
	Observability *observability.Observability // optional
	Logger        Logger
}

type Orchestrator struct {
	classifier  Classifier
	interpreter Interpreter
	responder   Responder
	transcriber Transcriber
	recorder    audit.Recorder
	obs         *observability.Observability
	logger      Logger
}

func New(deps Dependencies) *Orchestrator {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Orchestrator{
		classifier:  deps.Classifier,
		interpreter: deps.Interpreter,
		responder:   deps.Responder,
		transcriber: deps.Transcriber,
		recorder:    recorder,
		obs:         deps.Observability,
		logger:      deps.Logger,
	}
}

type Request struct {
	RequestID string
	Prompt    string
	Contacts  []models.Contact
	History   []models.Turn
}

type AudioRequest struct {
	RequestID string
	Audio     []byte
	MimeType  string
	Language  string
	Contacts  []models.Contact
	History   []models.Turn
}

// Response carries exactly one of Intent, Conversation or Transcription, or
// Err with a user-facing Message. HandleAudioAndDispatch may set
// Transcription alongside the dispatched result.
type Response struct {
	Intent        models.Intent
	Conversation  *models.ConversationResult
	Transcription *models.TranscriptionResult

	Err     error
	Message string
}

func (r *Response) Failed() bool {
	return r.Err != nil
}

// turn accumulates what the audit trail and metrics need.
type turn struct {
	entry          string
	outcome        string
	classification models.Classification
	action         string
	language       lexicon.Language
	err            error
	start          time.Time
}

// HandleText runs a text turn. Classification failure is answered with the
// conversational fallback; interpreter or responder failure with a short
// user-facing message.
func (o *Orchestrator) HandleText(ctx context.Context, req Request) *Response {
	return o.handleText(ctx, req, EntryText)
}

func (o *Orchestrator) handleText(ctx context.Context, req Request, entry string) *Response {
	ctx, span := o.obs.StartSpan(ctx, "interpreter.turn",
		attribute.String("entry", entry),
		attribute.String("request_id", req.RequestID),
	)
	t := &turn{entry: entry, start: time.Now()}
	defer func() {
		o.finish(ctx, req.RequestID, t)
		observability.EndSpan(span, t.err)
	}()

	if strings.TrimSpace(req.Prompt) == "" {
		return o.fail(t, errors.NewInvalidRequestError("prompt is required"))
	}

	var class models.Classification
	err := o.stage(ctx, "classify", func(ctx context.Context) error {
		var err error
		class, err = o.classifier.Classify(ctx, req.Prompt)
		return err
	})
	if err != nil {
		o.logger.Warn("classification failed, answering with fallback", map[string]interface{}{
			"requestId": req.RequestID,
			"errorCode": string(errors.CodeOf(err)),
			"error":     err.Error(),
		})
		t.outcome = OutcomeFallback
		return &Response{Conversation: models.NewConversationResult(models.ClassQuestion, FallbackMessage)}
	}
	t.classification = class

	switch class {
	case models.ClassCommand:
		var intent models.Intent
		err := o.stage(ctx, "interpret", func(ctx context.Context) error {
			var err error
			intent, err = o.interpreter.Interpret(ctx, req.Prompt, req.Contacts)
			return err
		})
		if err != nil {
			return o.fail(t, err)
		}
		t.outcome = intent.Action()
		t.action = intent.Action()
		t.language = lexicon.DetectLanguage(req.Prompt)
		return &Response{Intent: intent}

	default:
		var result *models.ConversationResult
		err := o.stage(ctx, "respond", func(ctx context.Context) error {
			var err error
			result, err = o.responder.RespondWithHistory(ctx, req.Prompt, class, req.History)
			return err
		})
		if err != nil {
			return o.fail(t, err)
		}
		t.outcome = string(class)
		return &Response{Conversation: result}
	}
}

// HandleAudio transcribes an audio turn and returns the transcript.
func (o *Orchestrator) HandleAudio(ctx context.Context, req AudioRequest) *Response {
	ctx, span := o.obs.StartSpan(ctx, "interpreter.turn",
		attribute.String("entry", EntryAudio),
		attribute.String("request_id", req.RequestID),
	)
	t := &turn{entry: EntryAudio, start: time.Now()}
	defer func() {
		o.finish(ctx, req.RequestID, t)
		observability.EndSpan(span, t.err)
	}()

	result, err := o.transcribe(ctx, req)
	if err != nil {
		return o.fail(t, err)
	}
	t.outcome = OutcomeTranscription
	return &Response{Transcription: result}
}

// HandleAudioAndDispatch transcribes, then runs the transcript through the
// text flow.
func (o *Orchestrator) HandleAudioAndDispatch(ctx context.Context, req AudioRequest) *Response {
	heard := o.HandleAudio(ctx, req)
	if heard.Failed() {
		return heard
	}

	resp := o.handleText(ctx, Request{
		RequestID: req.RequestID,
		Prompt:    heard.Transcription.Transcription,
		Contacts:  req.Contacts,
		History:   req.History,
	}, EntryAudio)
	resp.Transcription = heard.Transcription
	return resp
}

func (o *Orchestrator) transcribe(ctx context.Context, req AudioRequest) (*models.TranscriptionResult, error) {
	var result *models.TranscriptionResult
	err := o.stage(ctx, "transcribe", func(ctx context.Context) error {
		var err error
		result, err = o.transcriber.Transcribe(ctx, req.Audio, req.MimeType, req.Language)
		return err
	})
	return result, err
}

func (o *Orchestrator) fail(t *turn, err error) *Response {
	t.outcome = OutcomeFailure
	t.err = err
	return &Response{Err: err, Message: errors.UserMessage(err)}
}

// stage runs fn under its own span and records its duration.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := o.obs.StartSpan(ctx, "interpreter."+name)
	start := time.Now()

	err := fn(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name, status).Observe(elapsed.Seconds())
	o.obs.RecordStageDuration(ctx, name, elapsed, status)
	observability.EndSpan(span, err)
	return err
}

// finish records the turn. Audit failures are logged and otherwise ignored.
func (o *Orchestrator) finish(ctx context.Context, requestID string, t *turn) {
	metrics.InterpreterRequests.WithLabelValues(t.entry, t.outcome).Inc()
	o.obs.RecordTurn(ctx, t.entry, t.outcome)

	fields := map[string]interface{}{
		"requestId":  requestID,
		"entry":      t.entry,
		"outcome":    t.outcome,
		"durationMs": time.Since(t.start).Milliseconds(),
	}
	if t.err != nil {
		fields["errorCode"] = string(errors.CodeOf(t.err))
		fields["error"] = t.err.Error()
		o.logger.Error("turn failed", fields)
	} else {
		o.logger.Info("turn completed", fields)
	}

	rec := audit.Record{
		RequestID:      requestID,
		Entry:          t.entry,
		Outcome:        t.outcome,
		Classification: string(t.classification),
		Action:         t.action,
		Language:       string(t.language),
		DurationMs:     time.Since(t.start).Milliseconds(),
	}
	if t.err != nil {
		rec.ErrorCode = string(errors.CodeOf(t.err))
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Warn("audit record failed", map[string]interface{}{
			"requestId": requestID,
			"error":     err.Error(),
		})
	}
}
