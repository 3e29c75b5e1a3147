// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// InpatientTierCapConstraint 住院病房年级人数上限约束
// 同一病房轮转单时段内各年级住院医师人数不得超过模板声明的上限
type InpatientTierCapConstraint struct {
	*BaseConstraint
}

// NewInpatientTierCapConstraint 创建住院病房年级人数上限约束
func NewInpatientTierCapConstraint() *InpatientTierCapConstraint {
	return &InpatientTierCapConstraint{
		BaseConstraint: NewBaseConstraint(
			"病房年级人数上限",
			constraint.TypeInpatientTierCap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *InpatientTierCapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, slot := range ctx.Slots {
		countByTplPGY := make(map[uuid.UUID]map[int]int)
		for _, a := range ctx.GetSlotAssignments(slot.ID) {
			tpl := ctx.GetTemplate(a.TemplateID)
			person := ctx.GetPerson(a.PersonID)
			if tpl == nil || person == nil || tpl.Activity != model.ActivityInpatient || !person.IsResident() {
				continue
			}
			if countByTplPGY[a.TemplateID] == nil {
				countByTplPGY[a.TemplateID] = make(map[int]int)
			}
			countByTplPGY[a.TemplateID][person.PGYLevel]++
		}

		for tplID, byPGY := range countByTplPGY {
			tpl := ctx.GetTemplate(tplID)
			for pgy, count := range byPGY {
				limit := tpl.TierCap(pgy)
				if limit <= 0 || count <= limit {
					continue
				}
				isValid = false
				penalty := c.Weight() * (count - limit)
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					uuid.Nil, slot.ID, slot.Date,
					fmt.Sprintf("%s 在 %s %s 有 %d 名 PGY-%d，超过上限 %d", tpl.Name, slot.Date, slot.Period, count, pgy, limit),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *InpatientTierCapConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	tpl := ctx.GetTemplate(a.TemplateID)
	person := ctx.GetPerson(a.PersonID)
	if tpl == nil || person == nil || tpl.Activity != model.ActivityInpatient || !person.IsResident() {
		return true, 0
	}
	limit := tpl.TierCap(person.PGYLevel)
	if limit <= 0 {
		return true, 0
	}

	count := 0
	for _, existing := range ctx.GetSlotAssignments(a.SlotID) {
		if existing.TemplateID != a.TemplateID {
			continue
		}
		other := ctx.GetPerson(existing.PersonID)
		if other != nil && other.IsResident() && other.PGYLevel == person.PGYLevel {
			count++
		}
	}
	if count+1 > limit {
		return false, c.Weight()
	}
	return true, 0
}

// ClinicDayRequirementConstraint 门诊保留日软约束
// 高年级住院医师在要求保留门诊的病房轮转周内应有至少一个门诊半天
type ClinicDayRequirementConstraint struct {
	*BaseConstraint
}

// NewClinicDayRequirementConstraint 创建门诊保留日约束
func NewClinicDayRequirementConstraint() *ClinicDayRequirementConstraint {
	return &ClinicDayRequirementConstraint{
		BaseConstraint: NewBaseConstraint(
			"门诊保留日",
			constraint.TypeClinicDayRequirement,
			constraint.CategorySoft,
			30,
		),
	}
}

// Evaluate 评估整个排班
func (c *ClinicDayRequirementConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, person := range ctx.People {
		if !person.IsResident() || person.PGYLevel < 2 {
			continue
		}

		// 按周归并：该周是否在要求门诊的病房轮转上、是否有门诊半天
		inpatientWeeks := make(map[string]bool)
		clinicWeeks := make(map[string]bool)
		for _, a := range ctx.GetPersonAssignments(person.ID) {
			tpl := ctx.GetTemplate(a.TemplateID)
			if tpl == nil {
				continue
			}
			week := model.WeekStart(a.Date)
			if tpl.Activity == model.ActivityInpatient && tpl.RequiresClinicDay {
				inpatientWeeks[week] = true
			}
			if tpl.Activity == model.ActivityClinic {
				clinicWeeks[week] = true
			}
		}

		for week := range inpatientWeeks {
			if clinicWeeks[week] {
				continue
			}
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				person.ID, uuid.Nil, week,
				fmt.Sprintf("医师 %s 在周 %s 的病房轮转缺少门诊半天", person.Name, week),
				penalty,
			))
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
// 单分配视角无法判断整周结构，不在此处计罚
func (c *ClinicDayRequirementConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	return true, 0
}
