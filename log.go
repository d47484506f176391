package storyweave

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// EffectStatus is the lifecycle status of the driving effect that runs a
// script's Generate entry point.
type EffectStatus int

const (
	StatusInitializing EffectStatus = iota
	StatusLoading
	StatusConfiguring
	StatusUpdating
	StatusReady
	StatusCompilationFailed
	StatusLoadingFailed
	StatusExecutionFailed
	StatusUpdateCanceled
)

func (s EffectStatus) String() string {
	switch s {
	case StatusInitializing:
		return "Initializing"
	case StatusLoading:
		return "Loading"
	case StatusConfiguring:
		return "Configuring"
	case StatusUpdating:
		return "Updating"
	case StatusReady:
		return "Ready"
	case StatusCompilationFailed:
		return "CompilationFailed"
	case StatusLoadingFailed:
		return "LoadingFailed"
	case StatusExecutionFailed:
		return "ExecutionFailed"
	case StatusUpdateCanceled:
		return "UpdateCanceled"
	default:
		return "Unknown"
	}
}

// Fatal reports whether s is one of the statuses that should retain the
// accumulated log for display.
func (s EffectStatus) Fatal() bool {
	switch s {
	case StatusCompilationFailed, StatusLoadingFailed, StatusExecutionFailed:
		return true
	default:
		return false
	}
}

// EffectOutcome is the user-visible result of running a driving effect: its
// final status, an optional message, and — for a fatal status — the
// accumulated log.
type EffectOutcome struct {
	Status  EffectStatus
	Message string
	Log     []string
}

// Log accumulates zap-backed log lines for one generator run, retaining
// formatted lines so a fatal status can surface the whole run's log to the
// caller via EffectOutcome.Log.
type Log struct {
	mu     sync.Mutex
	logger *zap.Logger
	lines  []string
}

// NewLog wraps logger. A nil logger is replaced with a no-op zap logger, so
// a Log is always safe to use without a caller-supplied backend.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Info(msg string, fields ...zap.Field) {
	l.record("INFO", msg)
	l.logger.Info(msg, fields...)
}

func (l *Log) Warn(msg string, fields ...zap.Field) {
	l.record("WARN", msg)
	l.logger.Warn(msg, fields...)
}

func (l *Log) Error(msg string, fields ...zap.Field) {
	l.record("ERROR", msg)
	l.logger.Error(msg, fields...)
}

func (l *Log) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", level, msg))
}

// Lines returns a copy of every line recorded so far.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Phase names one boundary of a driving effect's run. RunEffect checks for
// cancellation immediately before each phase starts.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseConfiguring
	PhaseGenerating
	PhasePostProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "Loading"
	case PhaseConfiguring:
		return "Configuring"
	case PhaseGenerating:
		return "Generating"
	case PhasePostProcessing:
		return "PostProcessing"
	default:
		return "Unknown"
	}
}

// statusForPhaseFailure maps the phase a driving effect failed in to the
// distinguished EffectStatus spec.md §7 requires: script loading failures
// and script compilation/configuration failures are reported separately
// from general execution failures in the later phases.
func statusForPhaseFailure(phase Phase) EffectStatus {
	switch phase {
	case PhaseLoading:
		return StatusLoadingFailed
	case PhaseConfiguring:
		return StatusCompilationFailed
	default:
		return StatusExecutionFailed
	}
}

// RunEffect runs the named phases, in order, checking ctx for cancellation
// before each one starts. Cancellation stops the run immediately with
// StatusUpdateCanceled; a phase returning an error stops the run with the
// status statusForPhaseFailure gives for that phase (LoadingFailed,
// CompilationFailed or ExecutionFailed). A phase absent from phases is
// skipped. Fusion and
// object ordering are short CPU-bound steps and are never themselves
// checked for cancellation — only these phase boundaries are.
func RunEffect(ctx context.Context, log *Log, order []Phase, phases map[Phase]func(context.Context) error) EffectOutcome {
	for _, phase := range order {
		select {
		case <-ctx.Done():
			log.Warn("canceled before phase", zap.String("phase", phase.String()))
			return EffectOutcome{
				Status:  StatusUpdateCanceled,
				Message: "canceled before " + phase.String(),
				Log:     log.Lines(),
			}
		default:
		}

		fn, ok := phases[phase]
		if !ok {
			continue
		}
		if err := fn(ctx); err != nil {
			log.Error("phase failed", zap.String("phase", phase.String()), zap.Error(err))
			return EffectOutcome{
				Status:  statusForPhaseFailure(phase),
				Message: err.Error(),
				Log:     log.Lines(),
			}
		}
	}
	return EffectOutcome{Status: StatusReady}
}
