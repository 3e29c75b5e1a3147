// Package solver 提供排班求解器
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/stats"
)

// Strategy 求解策略
type Strategy string

const (
	StrategyGreedy Strategy = "greedy" // 贪心启发式
	StrategyCPSAT  Strategy = "cpsat"  // 约束回溯搜索
	StrategyMIP    Strategy = "mip"    // 整数规划（GLPK）
	StrategyHybrid Strategy = "hybrid" // 贪心起步 + 精确求解细化
	StrategyAuto   Strategy = "auto"   // 按规模自动选择
)

// 自动选择的规模阈值（时段数 × 在岗人数）
const (
	autoExactLimit  = 500
	autoHybridLimit = 50000
)

// Config 求解配置
type Config struct {
	Strategy      Strategy      `json:"strategy"`
	TimeBudget    time.Duration `json:"time_budget"`    // 0 表示不限时
	ExactBackend  Strategy      `json:"exact_backend"`  // Hybrid 的精确阶段（cpsat/mip）
	Workers       int           `json:"workers"`        // 回溯搜索的并行度
	MaxIterations int           `json:"max_iterations"` // 贪心迭代上限
	MaxNodes      int           `json:"max_nodes"`      // 回溯搜索节点预算
	ConstraintSet string        `json:"constraint_set"`
}

// DefaultConfig 返回默认求解配置
func DefaultConfig() Config {
	return Config{
		Strategy:      StrategyHybrid,
		TimeBudget:    30 * time.Second,
		ExactBackend:  StrategyCPSAT,
		Workers:       4,
		MaxIterations: 100000,
		MaxNodes:      2000000,
	}
}

// Result 求解结果
type Result struct {
	Assignments      []*model.Assignment `json:"assignments"`
	Feasible         bool                `json:"feasible"`
	Optimal          bool                `json:"optimal"`
	ObjectiveScore   float64             `json:"objective_score"` // 0-100，越高越好
	ConstraintResult *constraint.Result  `json:"constraint_result"`
	Diagnostics      *Diagnostics        `json:"diagnostics"`
	Elapsed          time.Duration       `json:"elapsed"`
	Message          string              `json:"message,omitempty"`
}

// Diagnostics 求解诊断信息
type Diagnostics struct {
	Strategy          string  `json:"strategy"`
	TotalAssignments  int     `json:"total_assignments"`
	FilledDemands     int     `json:"filled_demands"`
	TotalDemands      int     `json:"total_demands"`
	FillRate          float64 `json:"fill_rate"`
	TotalHours        float64 `json:"total_hours"`
	AvgHoursPerPerson float64 `json:"avg_hours_per_person"`
	Iterations        int     `json:"iterations"`
	NodesExplored     int     `json:"nodes_explored"`
	TimedOut          bool    `json:"timed_out"`
	EquityGini        float64 `json:"equity_gini"`
}

// Solver 求解器接口
type Solver interface {
	// Solve 生成排班方案
	Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// SelectStrategy 解析并确定求解策略
// 显式策略名必须合法；auto 按问题规模确定性选择
func SelectStrategy(cfg Config, schedCtx *constraint.Context) (Strategy, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	switch strategy {
	case StrategyGreedy, StrategyCPSAT, StrategyMIP, StrategyHybrid:
		return strategy, nil
	case StrategyAuto:
	default:
		return "", errors.UnknownStrategy(string(strategy))
	}

	active := 0
	for _, p := range schedCtx.People {
		if p.IsActive() {
			active++
		}
	}
	size := len(schedCtx.Slots) * active
	switch {
	case size <= autoExactLimit:
		return StrategyCPSAT, nil
	case size <= autoHybridLimit:
		return StrategyHybrid, nil
	default:
		return StrategyGreedy, nil
	}
}

// New 按配置创建求解器
func New(cfg Config, cm *constraint.Manager, schedCtx *constraint.Context) (Solver, error) {
	strategy, err := SelectStrategy(cfg, schedCtx)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case StrategyGreedy:
		return NewGreedySolver(cm, cfg), nil
	case StrategyCPSAT:
		return NewCPSATSolver(cm, cfg), nil
	case StrategyMIP:
		return NewMIPSolver(cm, cfg), nil
	case StrategyHybrid:
		return NewHybridSolver(cm, cfg), nil
	default:
		return nil, errors.UnknownStrategy(string(strategy))
	}
}

// sortedDemands 返回确定性排序的需求副本
// 顺序：优先级降序、日期、时段、时段单元 ID、模板 ID
func sortedDemands(schedCtx *constraint.Context) []*model.SlotDemand {
	demands := make([]*model.SlotDemand, len(schedCtx.Demands))
	copy(demands, schedCtx.Demands)

	key := func(d *model.SlotDemand) (string, int) {
		slot := schedCtx.GetSlot(d.SlotID)
		if slot == nil {
			return "", 0
		}
		return slot.Date, model.PeriodOrder(slot.Period)
	}

	sort.Slice(demands, func(i, j int) bool {
		a, b := demands[i], demands[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		da, pa := key(a)
		db, pb := key(b)
		if da != db {
			return da < db
		}
		if pa != pb {
			return pa < pb
		}
		if a.SlotID != b.SlotID {
			return a.SlotID.String() < b.SlotID.String()
		}
		return a.TemplateID.String() < b.TemplateID.String()
	})
	return demands
}

// buildDiagnostics 汇总求解诊断信息
func buildDiagnostics(strategy string, schedCtx *constraint.Context, produced []*model.Assignment) *Diagnostics {
	diag := &Diagnostics{
		Strategy:         strategy,
		TotalAssignments: len(produced),
		TotalDemands:     len(schedCtx.Demands),
	}

	for _, d := range schedCtx.Demands {
		if schedCtx.CountDemandAssigned(d.SlotID, d.TemplateID) >= d.MinCount && d.MinCount > 0 {
			diag.FilledDemands++
		} else if d.MinCount == 0 && schedCtx.CountDemandAssigned(d.SlotID, d.TemplateID) > 0 {
			diag.FilledDemands++
		}
	}
	if diag.TotalDemands > 0 {
		diag.FillRate = float64(diag.FilledDemands) / float64(diag.TotalDemands) * 100
	}

	var totalHours float64
	var hoursPerPerson []float64
	activePeople := 0
	for _, p := range schedCtx.People {
		var hours float64
		for _, a := range schedCtx.GetPersonAssignments(p.ID) {
			hours += a.Hours
		}
		totalHours += hours
		if p.IsActive() {
			hoursPerPerson = append(hoursPerPerson, hours)
		}
		if hours > 0 {
			activePeople++
		}
	}
	diag.TotalHours = totalHours
	if activePeople > 0 {
		diag.AvgHoursPerPerson = totalHours / float64(activePeople)
	}
	diag.EquityGini = stats.Gini(hoursPerPerson)

	return diag
}
