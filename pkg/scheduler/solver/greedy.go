// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// GreedySolver 贪心求解器
// 按确定性顺序遍历需求，每个席位选惩罚最小的候选人
type GreedySolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
	cfg               Config
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver(cm *constraint.Manager, cfg Config) *GreedySolver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100000
	}
	return &GreedySolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
		cfg:               cfg,
	}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// Solve 使用贪心算法生成排班
func (s *GreedySolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()

	if err := schedCtx.Validate(); err != nil {
		return nil, err
	}

	if s.cfg.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TimeBudget)
		defer cancel()
	}

	s.logger.StartSolve(s.Name(), len(schedCtx.People), len(schedCtx.Slots), len(schedCtx.Demands))

	result := &Result{
		Assignments: make([]*model.Assignment, 0),
	}

	demands := sortedDemands(schedCtx)

	// 工作量跟踪（含既有锁定分配）
	personHours := make(map[uuid.UUID]float64)
	for _, p := range schedCtx.People {
		for _, a := range schedCtx.GetPersonAssignments(p.ID) {
			personHours[p.ID] += a.Hours
		}
	}

	iterations := 0
	timedOut := false

demandLoop:
	for _, demand := range demands {
		slot := schedCtx.GetSlot(demand.SlotID)
		tpl := schedCtx.GetTemplate(demand.TemplateID)
		if slot == nil || tpl == nil {
			continue
		}

		target := demand.TargetCount
		if target == 0 {
			target = demand.MinCount
		}
		assigned := schedCtx.CountDemandAssigned(demand.SlotID, demand.TemplateID)

		for assigned < target {
			if ctx.Err() != nil {
				timedOut = true
				break demandLoop
			}
			iterations++
			if iterations > s.cfg.MaxIterations {
				break demandLoop
			}

			best := s.pickCandidate(schedCtx, slot, tpl, personHours)
			if best == nil {
				break
			}

			schedCtx.AddAssignment(best)
			result.Assignments = append(result.Assignments, best)
			personHours[best.PersonID] += best.Hours
			assigned++
		}
	}

	// 评估最终结果
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Feasible = result.ConstraintResult.IsValid
	result.Optimal = false
	result.ObjectiveScore = result.ConstraintResult.Score
	result.Elapsed = time.Since(startTime)
	result.Diagnostics = buildDiagnostics(s.Name(), schedCtx, result.Assignments)
	result.Diagnostics.Iterations = iterations
	result.Diagnostics.TimedOut = timedOut

	if result.Feasible {
		result.Message = fmt.Sprintf("排班完成，需求满足率 %.1f%%", result.Diagnostics.FillRate)
	} else {
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
	}

	s.logger.SolveComplete(s.Name(), result.Elapsed, result.Feasible, result.Optimal, result.ObjectiveScore)
	return result, nil
}

// pickCandidate 为一个席位挑选惩罚最小的候选人
// 并列时按累计工时、工号、ID 升序取先
func (s *GreedySolver) pickCandidate(schedCtx *constraint.Context, slot *model.Slot, tpl *model.RotationTemplate, hours map[uuid.UUID]float64) *model.Assignment {
	candidates := eligiblePeople(schedCtx, tpl)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if hours[a.ID] != hours[b.ID] {
			return hours[a.ID] < hours[b.ID]
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID.String() < b.ID.String()
	})

	var best *model.Assignment
	bestPenalty := 0
	for _, person := range candidates {
		assignment := model.NewAssignment(person.ID, slot, tpl.ID)

		canAssign, _ := s.constraintManager.CanAssign(schedCtx, assignment)
		if !canAssign {
			continue
		}

		penalty := s.constraintManager.GetPenalty(schedCtx, assignment)
		if best == nil || penalty < bestPenalty {
			best = assignment
			bestPenalty = penalty
		}
	}
	return best
}

// eligiblePeople 返回满足模板资格的在岗医师
func eligiblePeople(schedCtx *constraint.Context, tpl *model.RotationTemplate) []*model.Person {
	var result []*model.Person
	for _, p := range schedCtx.People {
		if !p.IsActive() || !tpl.Eligible(p) {
			continue
		}
		if tpl.Activity == model.ActivityCall && !p.TakesCall() {
			continue
		}
		result = append(result, p)
	}
	return result
}
