package orchestrator

import (
	"context"
	"fmt"

	"agent-control-plane/internal/domain"
	"agent-control-plane/internal/permission"
	"agent-control-plane/internal/risk"
)

// CycleResult summarizes one pass of the signal pipeline for an agent.
type CycleResult struct {
	Intent *domain.TradeIntent

	// Skipped names the stage that stopped the pipeline, empty when the
	// intent was executed: "no-intent", "risk:<reason>", "permission:<reason>".
	Skipped string

	Constraint risk.ConstraintResult
	Permission permission.CheckResult
	Result     *domain.ExecutionResult
}

// RunCycle runs the full pipeline for one signal batch:
// strategy evaluation → risk constraints → permission authorization →
// execution → result recording and position bookkeeping.
func (o *Orchestrator) RunCycle(ctx context.Context, agentID string, signals []domain.Signal) (*CycleResult, error) {
	intent, err := o.ProcessSignals(ctx, agentID, signals)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return &CycleResult{Skipped: "no-intent"}, nil
	}
	out := &CycleResult{Intent: intent}

	if o.risk != nil {
		status := o.risk.GetRemoteStatus(ctx)
		out.Constraint = o.risk.ApplyConstraints(intent, status)
		if !out.Constraint.Allowed {
			intent.Status = domain.IntentStatusCancelled
			out.Skipped = "risk:" + out.Constraint.Reason
			o.log("agent %s intent %s rejected by risk: %s", agentID, intent.IntentID, out.Constraint.Reason)
			return out, nil
		}
	}

	out.Permission, err = o.permissions.Authorize(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("authorize intent: %w", err)
	}
	if !out.Permission.Permitted {
		intent.Status = domain.IntentStatusCancelled
		out.Skipped = "permission:" + out.Permission.Reason
		o.log("agent %s intent %s denied: %s", agentID, intent.IntentID, out.Permission.Reason)
		return out, nil
	}

	if o.execute == nil {
		return out, nil
	}

	// No separate routing step for an in-process venue; the intent still
	// passes through both states so the transition rules hold.
	intent.Status = domain.IntentStatusRouting
	intent.Status = domain.IntentStatusExecuting
	result, execErr := o.execute(ctx, intent)
	if execErr != nil || result == nil {
		result = &domain.ExecutionResult{
			IntentID:   intent.IntentID,
			AgentID:    agentID,
			Success:    false,
			ExecutedAt: o.now(),
		}
		if execErr != nil {
			result.Error = execErr.Error()
		}
	}
	out.Result = result

	if result.Success {
		intent.Status = domain.IntentStatusCompleted
	} else {
		intent.Status = domain.IntentStatusFailed
	}

	if err := o.RecordExecution(ctx, agentID, result); err != nil {
		return nil, err
	}
	if result.Success {
		if err := o.settlePositions(ctx, agentID, intent, result); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// settlePositions applies a successful execution to the position book: a
// filled buy opens a position, a close removes the oldest matching one.
func (o *Orchestrator) settlePositions(ctx context.Context, agentID string, intent *domain.TradeIntent, result *domain.ExecutionResult) error {
	switch intent.Side {
	case domain.SideBuy:
		return o.AddPosition(ctx, agentID, &domain.Position{
			Market:     intent.Market,
			Side:       domain.SideBuy,
			Amount:     result.ExecutedSize,
			EntryPrice: result.ExecutedPrice,
			StopLoss:   intent.StopLoss,
			TakeProfit: intent.TakeProfit,
			OpenedAt:   o.now(),
		})
	case domain.SideClose:
		open, err := o.positions.GetByAgent(ctx, agentID)
		if err != nil {
			return fmt.Errorf("load positions: %w", err)
		}
		for _, p := range open {
			if p.Market == intent.Market {
				return o.ClosePosition(ctx, agentID, p.PositionID)
			}
		}
		return nil
	default:
		// Sell intents reduce exposure on the venue side; the book only
		// tracks long positions opened by buys.
		return nil
	}
}

// MarkPositions refreshes current prices and unrealized P&L from a price
// snapshot keyed by market. Unknown markets keep their last price.
func (o *Orchestrator) MarkPositions(ctx context.Context, agentID string, prices map[string]float64) error {
	mu := o.agentLock(agentID)
	mu.Lock()
	defer mu.Unlock()

	open, err := o.positions.GetByAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	for _, p := range open {
		price, ok := prices[p.Market]
		if !ok {
			continue
		}
		p.CurrentPrice = price
		p.UnrealizedPnL = (price - p.EntryPrice) * p.Amount
		if err := o.positions.Delete(ctx, p.PositionID); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
		if err := o.positions.Insert(ctx, p); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
	}
	return nil
}
