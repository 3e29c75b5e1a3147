// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// WorkloadEquityConstraint 工作量均衡软约束
// 同一分层（年级或角色）内按个人周目标工时折算应得份额，
// 实际工时偏离份额超出容忍范围时按偏差量计罚
type WorkloadEquityConstraint struct {
	*BaseConstraint
	tolerance float64 // 允许偏差（小时），在此范围内不计罚
}

// NewWorkloadEquityConstraint 创建工作量均衡约束
func NewWorkloadEquityConstraint(tolerance float64) *WorkloadEquityConstraint {
	if tolerance <= 0 {
		tolerance = 5
	}
	return &WorkloadEquityConstraint{
		BaseConstraint: NewBaseConstraint(
			"工作量均衡",
			constraint.TypeWorkloadEquity,
			constraint.CategorySoft,
			20,
		),
		tolerance: tolerance,
	}
}

// weeklyTarget 返回医师的周目标工时，未设置时按全职当量折算
func weeklyTarget(person *model.Person) float64 {
	if person.TargetHoursPerWeek > 0 {
		return person.TargetHoursPerWeek
	}
	fte := person.FTE
	if fte <= 0 {
		fte = 1
	}
	return 60 * fte
}

// tierHours 按分层统计各医师总工时
func (c *WorkloadEquityConstraint) tierHours(ctx *constraint.Context) map[string]map[uuid.UUID]float64 {
	result := make(map[string]map[uuid.UUID]float64)
	for _, person := range ctx.People {
		tier := person.Tier()
		if result[tier] == nil {
			result[tier] = make(map[uuid.UUID]float64)
		}
		var hours float64
		for _, a := range ctx.GetPersonAssignments(person.ID) {
			hours += a.Hours
		}
		result[tier][person.ID] = hours
	}
	return result
}

// Evaluate 评估整个排班
func (c *WorkloadEquityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for tier, byPerson := range c.tierHours(ctx) {
		if len(byPerson) < 2 {
			continue
		}
		var sumHours, sumTarget float64
		for personID, h := range byPerson {
			sumHours += h
			sumTarget += weeklyTarget(ctx.GetPerson(personID))
		}
		if sumTarget <= 0 {
			continue
		}

		for personID, hours := range byPerson {
			person := ctx.GetPerson(personID)
			expected := sumHours * weeklyTarget(person) / sumTarget
			dev := math.Abs(hours - expected)
			if dev <= c.tolerance {
				continue
			}
			penalty := c.Weight() * int(dev-c.tolerance)
			if penalty == 0 {
				penalty = c.Weight()
			}
			totalPenalty += penalty

			violations = append(violations, c.CreateViolation(
				personID, uuid.Nil, "",
				fmt.Sprintf("医师 %s 工时 %.1f 偏离 %s 层目标份额 %.1f 超过 %.0f 小时", person.Name, hours, tier, expected, c.tolerance),
				penalty,
			))
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
// 已高于本层目标份额的医师再加班时轻微计罚，引导负载均衡
func (c *WorkloadEquityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	person := ctx.GetPerson(a.PersonID)
	if person == nil {
		return true, 0
	}

	tier := person.Tier()
	var sumHours, sumTarget, own float64
	count := 0
	for _, other := range ctx.People {
		if other.Tier() != tier {
			continue
		}
		var hours float64
		for _, existing := range ctx.GetPersonAssignments(other.ID) {
			hours += existing.Hours
		}
		sumHours += hours
		sumTarget += weeklyTarget(other)
		count++
		if other.ID == person.ID {
			own = hours
		}
	}
	if count < 2 || sumTarget <= 0 {
		return true, 0
	}
	expected := sumHours * weeklyTarget(person) / sumTarget
	if own > expected+c.tolerance {
		return false, c.Weight() / 2
	}
	return true, 0
}

// AssignmentContinuityConstraint 轮转连续性软约束
// 同一医师在相邻日期更换轮转模板时计罚，鼓励成段轮转
type AssignmentContinuityConstraint struct {
	*BaseConstraint
}

// NewAssignmentContinuityConstraint 创建轮转连续性约束
func NewAssignmentContinuityConstraint() *AssignmentContinuityConstraint {
	return &AssignmentContinuityConstraint{
		BaseConstraint: NewBaseConstraint(
			"轮转连续性",
			constraint.TypeAssignmentContinuity,
			constraint.CategorySoft,
			10,
		),
	}
}

// Evaluate 评估整个排班
func (c *AssignmentContinuityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, person := range ctx.People {
		// 每天取主分配的模板（夜班值班不参与连续性判断）
		tplByDate := make(map[string]uuid.UUID)
		for _, a := range ctx.GetPersonAssignments(person.ID) {
			tpl := ctx.GetTemplate(a.TemplateID)
			if tpl == nil || tpl.Activity == model.ActivityCall {
				continue
			}
			if _, ok := tplByDate[a.Date]; !ok || a.Period == model.PeriodAM {
				tplByDate[a.Date] = a.TemplateID
			}
		}

		for date, tplID := range tplByDate {
			prev := model.AddDays(date, -1)
			prevTpl, ok := tplByDate[prev]
			if !ok || prevTpl == tplID {
				continue
			}
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				person.ID, uuid.Nil, date,
				fmt.Sprintf("医师 %s 在 %s 更换轮转，打断连续段", person.Name, date),
				penalty,
			))
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *AssignmentContinuityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	tpl := ctx.GetTemplate(a.TemplateID)
	if tpl == nil || tpl.Activity == model.ActivityCall {
		return true, 0
	}

	prev := model.AddDays(a.Date, -1)
	for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
		if existing.Date != prev {
			continue
		}
		etpl := ctx.GetTemplate(existing.TemplateID)
		if etpl == nil || etpl.Activity == model.ActivityCall {
			continue
		}
		if existing.TemplateID != a.TemplateID {
			return false, c.Weight()
		}
		return true, 0
	}
	return true, 0
}
