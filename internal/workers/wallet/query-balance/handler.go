package querybalance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

const (
	TaskType = "query-balance"
)

// SupportedAsset is the only asset the ledger contract reports on.
const SupportedAsset = models.AssetSUI

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	ledger Ledger
	errors *errors.ErrorHandler
	logger Logger
}

// NewHandler uses the HTTP ledger at config.LedgerBaseURL when ledger is nil.
func NewHandler(config *Config, ledger Ledger, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	if ledger == nil {
		ledger = NewHTTPLedger(config)
	}
	return &Handler{
		config: config,
		ledger: ledger,
		errors: errors.NewErrorHandler(l),
		logger: l,
	}
}

// Query looks up address's balance of asset (SUI when empty). Other assets
// are answered with a localized unsupported message rather than an error.
func (h *Handler) Query(ctx context.Context, address string, asset models.Asset, lang lexicon.Language) (*Output, error) {
	address = strings.TrimSpace(address)
	if !validation.LooksLikeAddress(address) {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("%q is not a valid Sui address", address))
	}

	if asset == "" {
		asset = SupportedAsset
	}
	if canonical, ok := lexicon.CorrectAsset(string(asset)); ok {
		asset = canonical
	}

	if asset != SupportedAsset {
		return &Output{
			Address: address,
			Asset:   asset,
			Message: lexicon.Message(lang, lexicon.MsgBalanceUnsupported, asset),
		}, nil
	}

	balance, err := h.ledger.Balance(ctx, address, asset)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeBalanceQueryFailed {
			return nil, err
		}
		return nil, errors.NewBalanceQueryFailedError(err)
	}

	h.logger.Info("balance fetched", map[string]interface{}{
		"address": address,
		"asset":   string(asset),
	})
	return &Output{
		Address:   address,
		Asset:     asset,
		Supported: true,
		Balance:   &balance,
		Message:   lexicon.Message(lang, lexicon.MsgBalanceResult, strconv.FormatFloat(balance, 'f', -1, 64), asset),
	}, nil
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
	lang, ok := lexicon.ParseLanguage(input.Language)
	if !ok {
		lang = lexicon.English
	}
	return h.Query(ctx, input.Address, input.Asset, lang)
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
