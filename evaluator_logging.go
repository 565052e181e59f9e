package settings

import "time"

// EvalLogEvent describes one expression evaluation attempt.
type EvalLogEvent struct {
	Key      string
	Expr     string
	Duration time.Duration
	Err      error
}

// EvalLogger records evaluator events.
type EvalLogger interface {
	LogEvaluation(EvalLogEvent)
}

// EvalLoggerFunc adapts a function to EvalLogger.
type EvalLoggerFunc func(EvalLogEvent)

// LogEvaluation implements EvalLogger.
func (f EvalLoggerFunc) LogEvaluation(event EvalLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvalLogger struct{}

func (noopEvalLogger) LogEvaluation(EvalLogEvent) {}
