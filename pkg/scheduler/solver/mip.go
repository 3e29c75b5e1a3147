// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lukpank/go-glpk/glpk"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// MIPSolver 整数规划求解器（GLPK 后端）
// 每个需求 × 候选医师建一个 0-1 变量，容量类硬约束转为线性行，
// 其余硬约束在取解落位时逐条校验，目标为覆盖奖励加工作量极差惩罚
type MIPSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
	cfg               Config
}

// NewMIPSolver 创建整数规划求解器
func NewMIPSolver(cm *constraint.Manager, cfg Config) *MIPSolver {
	return &MIPSolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
		cfg:               cfg,
	}
}

// Name 返回求解器名称
func (s *MIPSolver) Name() string {
	return "MIPSolver"
}

// mipVar 一个 0-1 决策变量：某医师承担某需求的一个名额
type mipVar struct {
	demand *model.SlotDemand
	slot   *model.Slot
	tpl    *model.RotationTemplate
	person *model.Person
	col    int
}

// Solve 构建并求解整数规划模型
func (s *MIPSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()

	if err := schedCtx.Validate(); err != nil {
		return nil, err
	}
	s.logger.StartSolve(s.Name(), len(schedCtx.People), len(schedCtx.Slots), len(schedCtx.Demands))

	if s.cfg.TimeBudget > 0 {
		// lukpank/go-glpk 的封装不暴露 GLPK 的时间限制参数
		logger.Warn().Dur("time_budget", s.cfg.TimeBudget).Msg("GLPK 后端不支持时间限制，将运行至完成")
	}

	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName("roster")
	lp.SetObjDir(glpk.ObjDir(glpk.MIN))

	numCols := 0
	createVar := func(name string, binary bool) int {
		numCols++
		lp.AddCols(1)
		lp.SetColName(numCols, name)
		if binary {
			lp.SetColKind(numCols, glpk.VarType(glpk.BV))
		} else {
			lp.SetColKind(numCols, glpk.VarType(glpk.IV))
			lp.SetColBnds(numCols, glpk.BndsType(glpk.LO), 0.0, 0.0)
		}
		return numCols
	}

	numRows := 0
	createRow := func(name string, bounds glpk.BndsType, lower, upper float64) int {
		numRows++
		lp.AddRows(1)
		lp.SetRowName(numRows, name)
		lp.SetRowBnds(numRows, bounds, lower, upper)
		return numRows
	}

	// 决策变量：候选资格经 CanAssign 针对既有分配预过滤，
	// 变量之间的互斥关系由后续线性行表达
	var vars []*mipVar
	varsByDemand := make(map[*model.SlotDemand][]*mipVar)
	varsBySlotPerson := make(map[string][]*mipVar)
	varsByPerson := make(map[uuid.UUID][]*mipVar)
	varsBySlotLocation := make(map[string][]*mipVar)
	varsByTierGroup := make(map[string][]*mipVar)

	for di, demand := range sortedDemands(schedCtx) {
		slot := schedCtx.GetSlot(demand.SlotID)
		tpl := schedCtx.GetTemplate(demand.TemplateID)
		if slot == nil || tpl == nil {
			continue
		}
		for _, person := range eligiblePeople(schedCtx, tpl) {
			probe := model.NewAssignment(person.ID, slot, tpl.ID)
			if ok, _ := s.constraintManager.CanAssign(schedCtx, probe); !ok {
				continue
			}
			v := &mipVar{demand: demand, slot: slot, tpl: tpl, person: person}
			v.col = createVar(fmt.Sprintf("x_%d_%s", di, person.Code), true)
			// 覆盖奖励：最小化方向下取负，优先级越高奖励越大
			lp.SetObjCoef(v.col, -float64(100+demand.Priority*10))

			vars = append(vars, v)
			varsByDemand[demand] = append(varsByDemand[demand], v)
			spKey := demand.SlotID.String() + "/" + person.ID.String()
			varsBySlotPerson[spKey] = append(varsBySlotPerson[spKey], v)
			varsByPerson[person.ID] = append(varsByPerson[person.ID], v)
			if tpl.LocationCode != "" {
				locKey := demand.SlotID.String() + "/" + tpl.LocationCode
				varsBySlotLocation[locKey] = append(varsBySlotLocation[locKey], v)
			}
			if tpl.Activity == model.ActivityInpatient && person.IsResident() && tpl.TierCap(person.PGYLevel) > 0 {
				tierKey := fmt.Sprintf("%s/%s/%d", demand.SlotID, tpl.ID, person.PGYLevel)
				varsByTierGroup[tierKey] = append(varsByTierGroup[tierKey], v)
			}
		}
	}

	if len(vars) == 0 {
		return s.finish(schedCtx, nil, false, startTime, 0, "无可用决策变量"), nil
	}

	// 需求名额上限：Σx ≤ target，容量不足时收紧到剩余容量
	for demand, dv := range varsByDemand {
		target := demand.TargetCount
		if target == 0 {
			target = demand.MinCount
		}
		tpl := schedCtx.GetTemplate(demand.TemplateID)
		if tpl != nil && tpl.MaxConcurrent > 0 {
			remaining := tpl.MaxConcurrent - schedCtx.CountDemandAssigned(demand.SlotID, demand.TemplateID)
			if remaining < target {
				target = remaining
			}
		}
		if target < 0 {
			target = 0
		}
		row := createRow(fmt.Sprintf("demand_%s", demand.ID.String()[:8]), glpk.BndsType(glpk.UP), 0, float64(target))
		lp.SetMatRow(row, colIndices(dv), ones(len(dv)))
	}

	// 同一时段单元每人至多一个主分配
	for key, sp := range varsBySlotPerson {
		if len(sp) < 2 {
			continue
		}
		row := createRow(fmt.Sprintf("uniq_%s_%s", key[:8], sp[0].person.Code), glpk.BndsType(glpk.UP), 0, 1.0)
		lp.SetMatRow(row, colIndices(sp), ones(len(sp)))
	}

	// 共用空间容量：同一时段同一空间的总人数上限，扣除既有分配占位
	for key, sv := range varsBySlotLocation {
		location := sv[0].tpl.LocationCode
		capacity := sharedSpaceCapacity(schedCtx, location)
		if capacity <= 0 {
			continue
		}
		occupied := 0
		for _, existing := range schedCtx.GetSlotAssignments(sv[0].demand.SlotID) {
			etpl := schedCtx.GetTemplate(existing.TemplateID)
			if etpl != nil && etpl.LocationCode == location {
				occupied++
			}
		}
		limit := capacity - occupied
		if limit < 0 {
			limit = 0
		}
		row := createRow(fmt.Sprintf("space_%s_%s", key[:8], location), glpk.BndsType(glpk.UP), 0, float64(limit))
		lp.SetMatRow(row, colIndices(sv), ones(len(sv)))
	}

	// 病房年级人数上限：同一时段同一病房模板内各年级住院医师数
	for key, sv := range varsByTierGroup {
		pgy := sv[0].person.PGYLevel
		tierLimit := sv[0].tpl.TierCap(pgy)
		occupied := 0
		for _, existing := range schedCtx.GetSlotAssignments(sv[0].demand.SlotID) {
			if existing.TemplateID != sv[0].tpl.ID {
				continue
			}
			other := schedCtx.GetPerson(existing.PersonID)
			if other != nil && other.IsResident() && other.PGYLevel == pgy {
				occupied++
			}
		}
		limit := tierLimit - occupied
		if limit < 0 {
			limit = 0
		}
		row := createRow(fmt.Sprintf("tier_%s_%s_%d", key[:8], sv[0].tpl.ID.String()[:8], pgy), glpk.BndsType(glpk.UP), 0, float64(limit))
		lp.SetMatRow(row, colIndices(sv), ones(len(sv)))
	}

	// 滚动四周窗口的周均工时上限
	ceiling := weeklyCeiling(schedCtx)
	for ws := model.WeekStart(schedCtx.StartDate); ws <= schedCtx.EndDate; ws = model.AddDays(ws, 7) {
		we := model.AddDays(ws, 27)
		for personID, pv := range varsByPerson {
			var indices []int32
			var coeffs []float64
			for _, v := range pv {
				if v.slot.Date >= ws && v.slot.Date <= we {
					indices = append(indices, int32(v.col))
					coeffs = append(coeffs, v.slot.Hours())
				}
			}
			if len(indices) == 0 {
				continue
			}
			existing := schedCtx.GetPersonHoursInRange(personID, ws, we)
			limit := ceiling*4 - existing
			if limit < 0 {
				limit = 0
			}
			row := createRow(fmt.Sprintf("hours_%s_%s", personID.String()[:8], ws), glpk.BndsType(glpk.UP), 0, limit)
			lp.SetMatRow(row, indices, coeffs)
		}
	}

	// 工作量极差变量：maxLoad ≥ 每人总工时 ≥ minLoad
	maxLoad := createVar("max_load", false)
	minLoad := createVar("min_load", false)
	lp.SetObjCoef(maxLoad, 1.0)
	lp.SetObjCoef(minLoad, -1.0)
	for personID, pv := range varsByPerson {
		existing := schedCtx.GetPersonHoursInRange(personID, schedCtx.StartDate, schedCtx.EndDate)
		indices := append([]int32{int32(maxLoad)}, colIndices(pv)...)
		coeffs := append([]float64{1.0}, negHours(pv)...)
		row := createRow(fmt.Sprintf("maxload_%s", personID.String()[:8]), glpk.BndsType(glpk.LO), existing, 0)
		lp.SetMatRow(row, indices, coeffs)

		indices = append([]int32{int32(minLoad)}, colIndices(pv)...)
		row = createRow(fmt.Sprintf("minload_%s", personID.String()[:8]), glpk.BndsType(glpk.UP), 0, existing)
		lp.SetMatRow(row, indices, coeffs)
	}

	// 预解启用后 Intopt 内部完成线性松弛求解
	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := lp.Intopt(iocp); err != nil {
		return nil, errors.SolverBackend("glpk", err)
	}

	status := lp.MipStatus()
	if status != glpk.OPT && status != glpk.FEAS {
		return s.finish(schedCtx, nil, false, startTime, len(vars), "整数规划无可行解"), nil
	}

	// 配比、休息节律等未入模型的硬约束在落位时逐条校验，
	// 与既有落位冲突的选择被放弃，不进入结果
	var produced []*model.Assignment
	dropped := 0
	for _, v := range vars {
		if lp.MipColVal(v.col) < 0.5 {
			continue
		}
		a := model.NewAssignment(v.person.ID, v.slot, v.tpl.ID)
		if ok, _ := s.constraintManager.CanAssign(schedCtx, a); !ok {
			dropped++
			continue
		}
		schedCtx.AddAssignment(a)
		produced = append(produced, a)
	}
	return s.finish(schedCtx, produced, status == glpk.OPT && dropped == 0, startTime, len(vars), ""), nil
}

// finish 汇总结果（分配已在落位阶段写入上下文）
func (s *MIPSolver) finish(schedCtx *constraint.Context, produced []*model.Assignment, proved bool, startTime time.Time, varCount int, message string) *Result {
	if produced == nil {
		produced = []*model.Assignment{}
	}

	result := &Result{Assignments: produced}
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Feasible = result.ConstraintResult.IsValid
	result.Optimal = proved && result.Feasible
	result.ObjectiveScore = result.ConstraintResult.Score
	result.Elapsed = time.Since(startTime)
	result.Diagnostics = buildDiagnostics(s.Name(), schedCtx, produced)
	result.Diagnostics.Iterations = varCount

	switch {
	case message != "":
		result.Message = message
	case result.Feasible:
		result.Message = fmt.Sprintf("整数规划求解完成，得分 %.1f", result.ObjectiveScore)
	default:
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
	}

	s.logger.SolveComplete(s.Name(), result.Elapsed, result.Feasible, result.Optimal, result.ObjectiveScore)
	return result
}

// sharedSpaceCapacity 返回某空间的容量（取共用模板中的最小声明值）
func sharedSpaceCapacity(schedCtx *constraint.Context, location string) int {
	capacity := 0
	for _, tpl := range schedCtx.Templates {
		if tpl.LocationCode != location || tpl.SpaceCapacity <= 0 {
			continue
		}
		if capacity == 0 || tpl.SpaceCapacity < capacity {
			capacity = tpl.SpaceCapacity
		}
	}
	return capacity
}

// weeklyCeiling 读取上下文配置的周工时上限
func weeklyCeiling(schedCtx *constraint.Context) float64 {
	if v, ok := schedCtx.Config["weekly_hour_ceiling"]; ok {
		switch n := v.(type) {
		case int:
			return float64(n)
		case float64:
			return n
		}
	}
	return 80
}

// colIndices 提取变量列号
func colIndices(vs []*mipVar) []int32 {
	indices := make([]int32, len(vs))
	for i, v := range vs {
		indices[i] = int32(v.col)
	}
	return indices
}

// ones 返回全 1 系数
func ones(n int) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return coeffs
}

// negHours 返回变量工时的相反数系数
func negHours(vs []*mipVar) []float64 {
	coeffs := make([]float64, len(vs))
	for i, v := range vs {
		coeffs[i] = -v.slot.Hours()
	}
	return coeffs
}
