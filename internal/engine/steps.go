package engine

import (
	"go.uber.org/zap"
)

// stepRecorder accumulates step results for one Apply run and forwards each
// transition to the observer. A step reported again under the same name
// replaces the earlier record.
type stepRecorder struct {
	steps    []StepResult
	observer Observer
	logger   *zap.Logger
}

func newStepRecorder(observer Observer, logger *zap.Logger) *stepRecorder {
	return &stepRecorder{observer: observer, logger: logger}
}

func (r *stepRecorder) emit(name string, status StepStatus, message string) {
	step := StepResult{Name: name, Status: status, Message: message}
	replaced := false
	for i := range r.steps {
		if r.steps[i].Name == name {
			r.steps[i] = step
			replaced = true
			break
		}
	}
	if !replaced {
		r.steps = append(r.steps, step)
	}

	fields := []zap.Field{zap.String("step", name), zap.String("status", string(status))}
	if message != "" {
		fields = append(fields, zap.String("message", message))
	}
	switch status {
	case StepError:
		r.logger.Warn("apply step failed", fields...)
	case StepRunning:
		r.logger.Debug("apply step started", fields...)
	default:
		r.logger.Info("apply step finished", fields...)
	}

	r.notify(step)
}

// notify delivers step to the observer. A panicking observer is logged and
// otherwise ignored so it cannot abort the run.
func (r *stepRecorder) notify(step StepResult) {
	if r.observer == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("observer panicked", zap.String("step", step.Name), zap.Any("panic", p))
		}
	}()
	r.observer.OnStep(step.Name, step.Status, step.Message)
}

func (r *stepRecorder) result() *ApplyResult {
	steps := make([]StepResult, len(r.steps))
	copy(steps, r.steps)

	success := true
	for _, s := range steps {
		if s.Status == StepError {
			success = false
			break
		}
	}
	return &ApplyResult{Steps: steps, Success: success}
}
