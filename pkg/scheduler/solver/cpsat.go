// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// CPSATSolver 约束回溯求解器
// 对席位逐个做深度优先分支，硬约束即时剪枝，随时保留当前最优解；
// 搜索完整结束时结果标记为最优
type CPSATSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
	cfg               Config
}

// NewCPSATSolver 创建约束回溯求解器
func NewCPSATSolver(cm *constraint.Manager, cfg Config) *CPSATSolver {
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = 2000000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &CPSATSolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
		cfg:               cfg,
	}
}

// Name 返回求解器名称
func (s *CPSATSolver) Name() string {
	return "CPSATSolver"
}

// seat 待决策的席位（需求的一个名额）
type seat struct {
	demand *model.SlotDemand
	slot   *model.Slot
	tpl    *model.RotationTemplate
}

// cpIncumbent 当前最优解
type cpIncumbent struct {
	assignments []*model.Assignment
	feasible    bool
	score       float64
	penalty     int
	result      *constraint.Result
}

// cpSearch 一次回溯搜索的共享状态
type cpSearch struct {
	cm          *constraint.Manager
	seats       []*seat
	deadline    time.Time
	hasDeadline bool
	maxNodes    int

	mu       sync.Mutex
	nodes    int
	best     *cpIncumbent
	complete bool
}

// Solve 使用回溯搜索生成排班
func (s *CPSATSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()

	if err := schedCtx.Validate(); err != nil {
		return nil, err
	}
	s.logger.StartSolve(s.Name(), len(schedCtx.People), len(schedCtx.Slots), len(schedCtx.Demands))

	search := &cpSearch{
		cm:       s.constraintManager,
		seats:    s.buildSeats(schedCtx),
		maxNodes: s.cfg.MaxNodes,
		complete: true,
	}
	if s.cfg.TimeBudget > 0 {
		search.deadline = startTime.Add(s.cfg.TimeBudget)
		search.hasDeadline = true
	}
	if d, ok := ctx.Deadline(); ok && (!search.hasDeadline || d.Before(search.deadline)) {
		search.deadline = d
		search.hasDeadline = true
	}

	if s.cfg.Workers > 1 && len(search.seats) > 0 {
		exploreRootsParallel(search, schedCtx, s.cfg.Workers)
	} else {
		search.dfs(schedCtx, 0, nil)
	}

	best := search.best
	result := &Result{}
	if best == nil {
		// 无席位，或预算在到达任何叶节点前耗尽
		result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
		result.Feasible = result.ConstraintResult.IsValid
		result.Optimal = search.complete
		result.ObjectiveScore = result.ConstraintResult.Score
		result.Assignments = []*model.Assignment{}
	} else {
		for _, a := range best.assignments {
			schedCtx.AddAssignment(a)
		}
		result.Assignments = best.assignments
		result.ConstraintResult = best.result
		result.Feasible = best.feasible
		result.Optimal = search.complete && best.feasible
		result.ObjectiveScore = best.score
	}

	result.Elapsed = time.Since(startTime)
	result.Diagnostics = buildDiagnostics(s.Name(), schedCtx, result.Assignments)
	result.Diagnostics.NodesExplored = search.nodes
	result.Diagnostics.TimedOut = !search.complete
	if result.Feasible {
		result.Message = fmt.Sprintf("回溯搜索完成，得分 %.1f", result.ObjectiveScore)
	} else {
		result.Message = "未找到满足全部硬约束的方案"
	}

	s.logger.SolveComplete(s.Name(), result.Elapsed, result.Feasible, result.Optimal, result.ObjectiveScore)
	return result, nil
}

// buildSeats 将需求展开为席位并按约束强度排序
// 候选人最少的需求先分支，同级按日期、时段、ID 保证确定性
func (s *CPSATSolver) buildSeats(schedCtx *constraint.Context) []*seat {
	demands := sortedDemands(schedCtx)

	candidateCount := make(map[*model.SlotDemand]int)
	var seats []*seat
	for _, d := range demands {
		slot := schedCtx.GetSlot(d.SlotID)
		tpl := schedCtx.GetTemplate(d.TemplateID)
		if slot == nil || tpl == nil {
			continue
		}
		candidateCount[d] = len(eligiblePeople(schedCtx, tpl))

		target := d.TargetCount
		if target == 0 {
			target = d.MinCount
		}
		already := schedCtx.CountDemandAssigned(d.SlotID, d.TemplateID)
		for i := already; i < target; i++ {
			seats = append(seats, &seat{demand: d, slot: slot, tpl: tpl})
		}
	}

	sort.SliceStable(seats, func(i, j int) bool {
		return candidateCount[seats[i].demand] < candidateCount[seats[j].demand]
	})
	return seats
}

// budgetExceeded 检查时间与节点预算
func (cs *cpSearch) budgetExceeded() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.nodes++
	if cs.nodes > cs.maxNodes {
		cs.complete = false
		return true
	}
	if cs.hasDeadline && time.Now().After(cs.deadline) {
		cs.complete = false
		return true
	}
	return false
}

// recordLeaf 记录叶节点方案，保留更优者
// 可行优于不可行，同可行性比较得分
func (cs *cpSearch) recordLeaf(schedCtx *constraint.Context, produced []*model.Assignment) {
	evaluated := cs.cm.Evaluate(schedCtx)
	// 总惩罚只含软约束，不可行方案之间还需按硬违规程度比较
	penalty := evaluated.TotalPenalty
	for _, v := range evaluated.HardViolations {
		penalty += v.Penalty
	}
	candidate := &cpIncumbent{
		assignments: append([]*model.Assignment(nil), produced...),
		feasible:    evaluated.IsValid,
		score:       evaluated.Score,
		penalty:     penalty,
		result:      evaluated,
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.best == nil {
		cs.best = candidate
		return
	}
	if candidate.feasible != cs.best.feasible {
		if candidate.feasible {
			cs.best = candidate
		}
		return
	}
	if candidate.penalty < cs.best.penalty {
		cs.best = candidate
	}
}

// candidatesFor 返回席位的候选医师（确定性顺序）
func (cs *cpSearch) candidatesFor(schedCtx *constraint.Context, st *seat) []*model.Person {
	candidates := eligiblePeople(schedCtx, st.tpl)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID.String() < b.ID.String()
	})
	return candidates
}

// dfs 深度优先搜索
func (cs *cpSearch) dfs(schedCtx *constraint.Context, idx int, produced []*model.Assignment) {
	if cs.budgetExceeded() {
		return
	}
	if idx >= len(cs.seats) {
		cs.recordLeaf(schedCtx, produced)
		return
	}

	st := cs.seats[idx]
	for _, person := range cs.candidatesFor(schedCtx, st) {
		assignment := model.NewAssignment(person.ID, st.slot, st.tpl.ID)
		if ok, _ := cs.cm.CanAssign(schedCtx, assignment); !ok {
			continue
		}

		schedCtx.AddAssignment(assignment)
		cs.dfs(schedCtx, idx+1, append(produced, assignment))
		schedCtx.RemoveAssignment(assignment.ID)

		cs.mu.Lock()
		stop := !cs.complete
		cs.mu.Unlock()
		if stop {
			return
		}
	}

	// 留空分支：覆盖惩罚在叶节点结算
	cs.dfs(schedCtx, idx+1, produced)
}
