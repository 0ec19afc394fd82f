package main

import (
	"milo-interpreter/internal/common/logger"
	ci "milo-interpreter/internal/workers/ai-conversation/classify-intent"
	cr "milo-interpreter/internal/workers/ai-conversation/conversational-reply"
	ic "milo-interpreter/internal/workers/ai-conversation/interpret-command"
	ta "milo-interpreter/internal/workers/ai-conversation/transcribe-audio"
	dt "milo-interpreter/internal/workers/wallet/draft-transaction"
	qb "milo-interpreter/internal/workers/wallet/query-balance"
)

// Logger adapters for workers that declare their own Logger interfaces.

type classifyLogger struct {
	logger.Logger
}

func (a classifyLogger) With(fields map[string]interface{}) ci.Logger {
	return classifyLogger{a.Logger.With(fields)}
}

type interpretLogger struct {
	logger.Logger
}

func (a interpretLogger) With(fields map[string]interface{}) ic.Logger {
	return interpretLogger{a.Logger.With(fields)}
}

type replyLogger struct {
	logger.Logger
}

func (a replyLogger) With(fields map[string]interface{}) cr.Logger {
	return replyLogger{a.Logger.With(fields)}
}

type transcribeLogger struct {
	logger.Logger
}

func (a transcribeLogger) With(fields map[string]interface{}) ta.Logger {
	return transcribeLogger{a.Logger.With(fields)}
}

type draftLogger struct {
	logger.Logger
}

func (a draftLogger) With(fields map[string]interface{}) dt.Logger {
	return draftLogger{a.Logger.With(fields)}
}

type balanceLogger struct {
	logger.Logger
}

func (a balanceLogger) With(fields map[string]interface{}) qb.Logger {
	return balanceLogger{a.Logger.With(fields)}
}
