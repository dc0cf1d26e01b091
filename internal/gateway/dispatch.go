package gateway

import (
	"context"

	"github.com/smallbiznis/brewlink/internal/command"
	"github.com/smallbiznis/brewlink/internal/observability/logger"
	"github.com/smallbiznis/brewlink/internal/observability/tracing"
	"github.com/smallbiznis/brewlink/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Result is the outcome of a dispatch. Exactly one of Sent, Rejection or Err
// is set.
type Result struct {
	Sent      bool
	Rejection *command.Rejection
	Err       error
}

func (r Result) Outcome() Outcome {
	switch {
	case r.Sent:
		return OutcomeSent
	case r.Rejection != nil:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

// Dispatch validates cmd against fresh device state and publishes it. It
// never writes device state; power changes are applied only when the device
// reports them.
func (g *Gateway) Dispatch(ctx context.Context, deviceID int64, cmd command.Command) Result {
	ctx, cid := correlation.EnsureCorrelationID(ctx)
	ctx, span := tracing.StartCommand(ctx, deviceID, cmd.Action)
	log := logger.WithDevice(logger.WithContext(ctx, g.log), deviceID).With(
		zap.String("action", cmd.Action),
		zap.String("correlation_id", cid),
	)

	result := g.dispatch(ctx, deviceID, cmd)
	tracing.EndSpan(span, result.Err)
	outcome := result.Outcome()
	reason := ""
	switch outcome {
	case OutcomeSent:
		log.Info("command sent")
	case OutcomeRejected:
		reason = result.Rejection.Reason
		log.Info("command rejected", zap.String("reason", reason))
	default:
		log.Error("command dispatch failed", zap.Error(result.Err))
	}
	g.prom.IncCommand(cmd.Action, string(outcome))
	g.metrics.RecordCommand(ctx, cmd.Action, string(outcome), reason)
	return result
}

func (g *Gateway) dispatch(ctx context.Context, deviceID int64, cmd command.Command) Result {
	if g.State() != StateListening {
		return Result{Err: ErrNotConnected}
	}

	decision, err := g.validator.Check(ctx, deviceID, cmd.Action)
	if err != nil {
		return Result{Err: err}
	}
	if !decision.Allowed {
		return Result{Rejection: decision.Rejection}
	}

	if err := g.Publish(ctx, cmd); err != nil {
		return Result{Err: err}
	}
	return Result{Sent: true}
}
