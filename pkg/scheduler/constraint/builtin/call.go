// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// CallCoverageConstraint 夜班值班覆盖约束
// 配置的星期几的夜班时段必须且只能有一名带教医师值班；
// 兼职医师不参与求解器生成的值班；有任何缺勤记录的日期不得值班
type CallCoverageConstraint struct {
	*BaseConstraint
	weekdays map[time.Weekday]bool
}

// NewCallCoverageConstraint 创建夜班值班覆盖约束
// weekdays 为空表示每天都需要值班
func NewCallCoverageConstraint(weekdays []time.Weekday) *CallCoverageConstraint {
	set := make(map[time.Weekday]bool)
	for _, wd := range weekdays {
		set[wd] = true
	}
	return &CallCoverageConstraint{
		BaseConstraint: NewBaseConstraint(
			"夜班值班覆盖",
			constraint.TypeCallCoverage,
			constraint.CategoryHard,
			100,
		),
		weekdays: set,
	}
}

// matches 检查时段单元是否为需要值班的夜班
func (c *CallCoverageConstraint) matches(slot *model.Slot) bool {
	if slot == nil || slot.Period != model.PeriodNight {
		return false
	}
	if len(c.weekdays) == 0 {
		return true
	}
	return c.weekdays[slot.Weekday()]
}

// callAssignments 返回某时段单元上的值班分配
func callAssignments(ctx *constraint.Context, slotID uuid.UUID) []*model.Assignment {
	var result []*model.Assignment
	for _, a := range ctx.GetSlotAssignments(slotID) {
		tpl := ctx.GetTemplate(a.TemplateID)
		if tpl != nil && tpl.Activity == model.ActivityCall {
			result = append(result, a)
		}
	}
	return result
}

// Evaluate 评估整个排班
func (c *CallCoverageConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	hasCallTemplate := false
	for _, tpl := range ctx.Templates {
		if tpl.Activity == model.ActivityCall {
			hasCallTemplate = true
			break
		}
	}
	if !hasCallTemplate {
		return true, 0, nil
	}

	for _, slot := range ctx.Slots {
		if !c.matches(slot) {
			continue
		}
		assignments := callAssignments(ctx, slot.ID)

		if len(assignments) == 0 {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, slot.ID, slot.Date,
				fmt.Sprintf("%s 夜班无人值班", slot.Date),
				penalty,
			))
			continue
		}
		if len(assignments) > 1 {
			isValid = false
			penalty := c.Weight() * (len(assignments) - 1)
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, slot.ID, slot.Date,
				fmt.Sprintf("%s 夜班有 %d 人值班，应恰好一人", slot.Date, len(assignments)),
				penalty,
			))
		}

		for _, a := range assignments {
			person := ctx.GetPerson(a.PersonID)
			if person == nil {
				continue
			}
			if person.IsResident() {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					a.PersonID, a.SlotID, a.Date,
					fmt.Sprintf("住院医师 %s 不得单独承担夜班值班", person.Name),
					penalty,
				))
			}
			if person.Role == model.RoleAdjunct && a.Source == model.SourceSolver {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					a.PersonID, a.SlotID, a.Date,
					fmt.Sprintf("兼职医师 %s 不参与自动值班分配", person.Name),
					penalty,
				))
			}
			if ctx.HasAnyAbsence(a.PersonID, a.Date) {
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					a.PersonID, a.SlotID, a.Date,
					fmt.Sprintf("医师 %s 在 %s 有缺勤记录，不得值班", person.Name, a.Date),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *CallCoverageConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	tpl := ctx.GetTemplate(a.TemplateID)
	if tpl == nil || tpl.Activity != model.ActivityCall {
		return true, 0
	}
	slot := ctx.GetSlot(a.SlotID)
	if !c.matches(slot) {
		return true, 0
	}

	person := ctx.GetPerson(a.PersonID)
	if person == nil || person.IsResident() {
		return false, c.Weight()
	}
	if person.Role == model.RoleAdjunct && a.Source == model.SourceSolver {
		return false, c.Weight()
	}
	if ctx.HasAnyAbsence(a.PersonID, a.Date) {
		return false, c.Weight()
	}
	if len(callAssignments(ctx, a.SlotID)) >= 1 {
		return false, c.Weight()
	}
	return true, 0
}
