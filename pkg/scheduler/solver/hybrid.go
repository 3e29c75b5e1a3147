// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// HybridSolver 混合求解器
// 先用贪心快速取得一个方案，再把剩余时间预算交给精确求解器；
// 精确阶段只有在得到可行且不劣于贪心的方案时才被采纳
type HybridSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
	cfg               Config
}

// NewHybridSolver 创建混合求解器
func NewHybridSolver(cm *constraint.Manager, cfg Config) *HybridSolver {
	if cfg.ExactBackend != StrategyCPSAT && cfg.ExactBackend != StrategyMIP {
		cfg.ExactBackend = StrategyCPSAT
	}
	return &HybridSolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
		cfg:               cfg,
	}
}

// Name 返回求解器名称
func (s *HybridSolver) Name() string {
	return "HybridSolver"
}

// Solve 两阶段求解
func (s *HybridSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()

	if err := schedCtx.Validate(); err != nil {
		return nil, err
	}
	s.logger.StartSolve(s.Name(), len(schedCtx.People), len(schedCtx.Slots), len(schedCtx.Demands))

	// 阶段一：贪心起步，占用至多一半时间预算
	greedyCfg := s.cfg
	if s.cfg.TimeBudget > 0 {
		greedyCfg.TimeBudget = s.cfg.TimeBudget / 2
		if greedyCfg.TimeBudget <= 0 {
			greedyCfg.TimeBudget = s.cfg.TimeBudget
		}
	}
	greedyCtx := schedCtx.Clone()
	greedyResult, err := NewGreedySolver(s.constraintManager, greedyCfg).Solve(ctx, greedyCtx)
	if err != nil {
		return nil, err
	}

	// 阶段二：剩余预算交给精确求解器
	remaining := time.Duration(0)
	if s.cfg.TimeBudget > 0 {
		remaining = s.cfg.TimeBudget - time.Since(startTime)
	}

	var exactResult *Result
	if s.cfg.TimeBudget == 0 || remaining > 0 {
		exactCfg := s.cfg
		exactCfg.TimeBudget = remaining
		exactCtx := schedCtx.Clone()

		var exact Solver
		if s.cfg.ExactBackend == StrategyMIP {
			exact = NewMIPSolver(s.constraintManager, exactCfg)
		} else {
			exact = NewCPSATSolver(s.constraintManager, exactCfg)
		}
		exactResult, err = exact.Solve(ctx, exactCtx)
		if err != nil {
			// 精确阶段失败时退回贪心方案
			logger.WithError(err).Msg("精确求解阶段失败，沿用贪心方案")
			exactResult = nil
		}
	}

	adopted := greedyResult
	if exactResult != nil && exactResult.Feasible && exactResult.ObjectiveScore >= greedyResult.ObjectiveScore {
		adopted = exactResult
	}
	for _, a := range adopted.Assignments {
		schedCtx.AddAssignment(a)
	}

	result := &Result{
		Assignments:      adopted.Assignments,
		Feasible:         adopted.Feasible,
		Optimal:          adopted.Optimal,
		ObjectiveScore:   adopted.ObjectiveScore,
		ConstraintResult: adopted.ConstraintResult,
	}
	result.Elapsed = time.Since(startTime)
	result.Diagnostics = buildDiagnostics(s.Name(), schedCtx, result.Assignments)
	result.Diagnostics.Iterations = greedyResult.Diagnostics.Iterations
	result.Diagnostics.TimedOut = greedyResult.Diagnostics.TimedOut
	if exactResult != nil {
		result.Diagnostics.NodesExplored = exactResult.Diagnostics.NodesExplored
		result.Diagnostics.TimedOut = result.Diagnostics.TimedOut || exactResult.Diagnostics.TimedOut
	}

	phase := "贪心"
	if adopted == exactResult {
		phase = string(s.cfg.ExactBackend)
	}
	if result.Feasible {
		result.Message = fmt.Sprintf("混合求解完成（采纳 %s 阶段），得分 %.1f", phase, result.ObjectiveScore)
	} else {
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
	}

	s.logger.SolveComplete(s.Name(), result.Elapsed, result.Feasible, result.Optimal, result.ObjectiveScore)
	return result, nil
}
