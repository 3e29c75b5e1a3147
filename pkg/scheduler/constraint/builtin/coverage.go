// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// PrimarySlotUniquenessConstraint 主分配唯一性约束
// 同一医师在同一时段单元最多有一个主分配
type PrimarySlotUniquenessConstraint struct {
	*BaseConstraint
}

// NewPrimarySlotUniquenessConstraint 创建主分配唯一性约束
func NewPrimarySlotUniquenessConstraint() *PrimarySlotUniquenessConstraint {
	return &PrimarySlotUniquenessConstraint{
		BaseConstraint: NewBaseConstraint(
			"主分配唯一性",
			constraint.TypePrimarySlotUniqueness,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *PrimarySlotUniquenessConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	counts := make(map[string]int)
	for _, a := range ctx.Assignments {
		if !a.Primary {
			continue
		}
		counts[a.PersonID.String()+"/"+a.SlotID.String()]++
	}

	for _, a := range ctx.Assignments {
		if !a.Primary {
			continue
		}
		key := a.PersonID.String() + "/" + a.SlotID.String()
		if counts[key] > 1 {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty

			person := ctx.GetPerson(a.PersonID)
			name := a.PersonID.String()
			if person != nil {
				name = person.Name
			}
			violations = append(violations, c.CreateViolation(
				a.PersonID, a.SlotID, a.Date,
				fmt.Sprintf("医师 %s 在 %s %s 存在多个主分配", name, a.Date, a.Period),
				penalty,
			))
			counts[key] = 1 // 每组只报告一次
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *PrimarySlotUniquenessConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if !a.Primary {
		return true, 0
	}
	for _, existing := range ctx.GetSlotAssignments(a.SlotID) {
		if existing.Primary && existing.PersonID == a.PersonID {
			return false, c.Weight()
		}
	}
	return true, 0
}

// TemplateCapacityConstraint 模板容量与资格约束
// 单时段同时人数不超过模板容量，且人员须满足模板资格与适用范围
type TemplateCapacityConstraint struct {
	*BaseConstraint
}

// NewTemplateCapacityConstraint 创建模板容量与资格约束
func NewTemplateCapacityConstraint() *TemplateCapacityConstraint {
	return &TemplateCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"模板容量与资格",
			constraint.TypeTemplateCapacity,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *TemplateCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	// 单时段容量
	for _, slot := range ctx.Slots {
		countByTemplate := make(map[uuid.UUID]int)
		for _, a := range ctx.GetSlotAssignments(slot.ID) {
			countByTemplate[a.TemplateID]++
		}
		for tplID, count := range countByTemplate {
			tpl := ctx.GetTemplate(tplID)
			if tpl == nil || tpl.MaxConcurrent <= 0 {
				continue
			}
			if count > tpl.MaxConcurrent {
				isValid = false
				penalty := c.Weight() * (count - tpl.MaxConcurrent)
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					uuid.Nil, slot.ID, slot.Date,
					fmt.Sprintf("%s 在 %s %s 分配 %d 人，超过容量 %d", tpl.Name, slot.Date, slot.Period, count, tpl.MaxConcurrent),
					penalty,
				))
			}
		}
	}

	// 资格与适用范围
	for _, a := range ctx.Assignments {
		tpl := ctx.GetTemplate(a.TemplateID)
		person := ctx.GetPerson(a.PersonID)
		slot := ctx.GetSlot(a.SlotID)
		if tpl == nil || person == nil || slot == nil {
			continue
		}
		if !tpl.Eligible(person) {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				a.PersonID, a.SlotID, a.Date,
				fmt.Sprintf("医师 %s 不满足 %s 的资格要求", person.Name, tpl.Name),
				penalty,
			))
		}
		if !tpl.AppliesTo(slot) {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				a.PersonID, a.SlotID, a.Date,
				fmt.Sprintf("%s 不适用于 %s %s", tpl.Name, slot.Date, slot.Period),
				penalty,
			))
		}
	}

	// 每人每周在同一模板上的次数上限
	for _, person := range ctx.People {
		countByWeekTpl := make(map[string]int)
		for _, a := range ctx.GetPersonAssignments(person.ID) {
			tpl := ctx.GetTemplate(a.TemplateID)
			if tpl == nil || tpl.MaxPerWeek <= 0 {
				continue
			}
			countByWeekTpl[model.WeekStart(a.Date)+"/"+a.TemplateID.String()]++
		}
		for key, count := range countByWeekTpl {
			weekStart := key[:10]
			tplID, _ := uuid.Parse(key[11:])
			tpl := ctx.GetTemplate(tplID)
			if tpl == nil || count <= tpl.MaxPerWeek {
				continue
			}
			isValid = false
			penalty := c.Weight() * (count - tpl.MaxPerWeek)
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				person.ID, uuid.Nil, weekStart,
				fmt.Sprintf("医师 %s 在周 %s 承担 %s %d 次，超过每周上限 %d", person.Name, weekStart, tpl.Name, count, tpl.MaxPerWeek),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *TemplateCapacityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	tpl := ctx.GetTemplate(a.TemplateID)
	person := ctx.GetPerson(a.PersonID)
	slot := ctx.GetSlot(a.SlotID)
	if tpl == nil || person == nil || slot == nil {
		return false, c.Weight()
	}

	if !tpl.Eligible(person) || !tpl.AppliesTo(slot) {
		return false, c.Weight()
	}

	if tpl.MaxConcurrent > 0 {
		if ctx.CountDemandAssigned(a.SlotID, a.TemplateID)+1 > tpl.MaxConcurrent {
			return false, c.Weight()
		}
	}

	if tpl.MaxPerWeek > 0 {
		weekStart := model.WeekStart(a.Date)
		weekEnd := model.AddDays(weekStart, 6)
		count := 0
		for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
			if existing.TemplateID == a.TemplateID && existing.Date >= weekStart && existing.Date <= weekEnd {
				count++
			}
		}
		if count+1 > tpl.MaxPerWeek {
			return false, c.Weight()
		}
	}

	return true, 0
}

// SpaceCapacityConstraint 物理空间容量约束
// 共用同一空间（LocationCode 相同）的模板在单时段的总人数不得超过空间容量
type SpaceCapacityConstraint struct {
	*BaseConstraint
}

// NewSpaceCapacityConstraint 创建物理空间容量约束
func NewSpaceCapacityConstraint() *SpaceCapacityConstraint {
	return &SpaceCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"物理空间容量",
			constraint.TypeSpaceCapacity,
			constraint.CategoryHard,
			100,
		),
	}
}

// spaceCapacity 返回某空间的容量（取共用模板中的最小声明值）
func spaceCapacity(ctx *constraint.Context, location string) int {
	capacity := 0
	for _, tpl := range ctx.Templates {
		if tpl.LocationCode != location || tpl.SpaceCapacity <= 0 {
			continue
		}
		if capacity == 0 || tpl.SpaceCapacity < capacity {
			capacity = tpl.SpaceCapacity
		}
	}
	return capacity
}

// Evaluate 评估整个排班
func (c *SpaceCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, slot := range ctx.Slots {
		countByLocation := make(map[string]int)
		for _, a := range ctx.GetSlotAssignments(slot.ID) {
			tpl := ctx.GetTemplate(a.TemplateID)
			if tpl == nil || tpl.LocationCode == "" {
				continue
			}
			countByLocation[tpl.LocationCode]++
		}
		for location, count := range countByLocation {
			capacity := spaceCapacity(ctx, location)
			if capacity <= 0 || count <= capacity {
				continue
			}
			isValid = false
			penalty := c.Weight() * (count - capacity)
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, slot.ID, slot.Date,
				fmt.Sprintf("空间 %s 在 %s %s 容纳 %d 人，超过容量 %d", location, slot.Date, slot.Period, count, capacity),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *SpaceCapacityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	tpl := ctx.GetTemplate(a.TemplateID)
	if tpl == nil || tpl.LocationCode == "" {
		return true, 0
	}
	capacity := spaceCapacity(ctx, tpl.LocationCode)
	if capacity <= 0 {
		return true, 0
	}

	count := 0
	for _, existing := range ctx.GetSlotAssignments(a.SlotID) {
		etpl := ctx.GetTemplate(existing.TemplateID)
		if etpl != nil && etpl.LocationCode == tpl.LocationCode {
			count++
		}
	}
	if count+1 > capacity {
		return false, c.Weight()
	}
	return true, 0
}

// CoverageMaximizationConstraint 覆盖最大化软约束
// 未满足目标人数的需求按缺口计罚，模板声明每周次数范围时
// 同时对周内次数低于下限的医师计缺口
type CoverageMaximizationConstraint struct {
	*BaseConstraint
}

// NewCoverageMaximizationConstraint 创建覆盖最大化约束
func NewCoverageMaximizationConstraint() *CoverageMaximizationConstraint {
	return &CoverageMaximizationConstraint{
		BaseConstraint: NewBaseConstraint(
			"覆盖最大化",
			constraint.TypeCoverageMaximization,
			constraint.CategorySoft,
			50,
		),
	}
}

// Evaluate 评估整个排班
func (c *CoverageMaximizationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, d := range ctx.Demands {
		assigned := ctx.CountDemandAssigned(d.SlotID, d.TemplateID)
		if assigned >= d.TargetCount {
			continue
		}
		shortfall := d.TargetCount - assigned
		penalty := c.Weight() * shortfall
		if d.Priority > 0 {
			penalty += d.Priority * shortfall
		}
		totalPenalty += penalty

		slot := ctx.GetSlot(d.SlotID)
		tpl := ctx.GetTemplate(d.TemplateID)
		date, tplName := "", d.TemplateID.String()
		if slot != nil {
			date = slot.Date
		}
		if tpl != nil {
			tplName = tpl.Name
		}
		violations = append(violations, c.CreateViolation(
			uuid.Nil, d.SlotID, date,
			fmt.Sprintf("%s 在 %s 缺员 %d 人（目标 %d，实际 %d）", tplName, date, shortfall, d.TargetCount, assigned),
			penalty,
		))
	}

	// 每周次数下限：只对该周已参与该轮转的医师计缺口
	for _, tpl := range ctx.Templates {
		if tpl.MinPerWeek <= 0 {
			continue
		}
		for _, person := range ctx.People {
			countByWeek := make(map[string]int)
			for _, a := range ctx.GetPersonAssignments(person.ID) {
				if a.TemplateID == tpl.ID {
					countByWeek[model.WeekStart(a.Date)]++
				}
			}
			for week, count := range countByWeek {
				if count >= tpl.MinPerWeek {
					continue
				}
				shortfall := tpl.MinPerWeek - count
				penalty := c.Weight() * shortfall
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					person.ID, uuid.Nil, week,
					fmt.Sprintf("医师 %s 在周 %s 承担 %s %d 次，低于每周下限 %d", person.Name, week, tpl.Name, count, tpl.MinPerWeek),
					penalty,
				))
			}
		}
	}

	return totalPenalty == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
// 候选落在已达目标的需求上、或使医师超出每周目标次数时轻微计罚
func (c *CoverageMaximizationConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	penalty := 0
	for _, d := range ctx.Demands {
		if d.SlotID != a.SlotID || d.TemplateID != a.TemplateID {
			continue
		}
		if ctx.CountDemandAssigned(d.SlotID, d.TemplateID) >= d.TargetCount {
			penalty += c.Weight() / 2
		}
		break
	}

	tpl := ctx.GetTemplate(a.TemplateID)
	if tpl != nil && tpl.TargetPerWeek > 0 {
		weekStart := model.WeekStart(a.Date)
		weekEnd := model.AddDays(weekStart, 6)
		count := 0
		for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
			if existing.TemplateID == a.TemplateID && existing.Date >= weekStart && existing.Date <= weekEnd {
				count++
			}
		}
		if count+1 > tpl.TargetPerWeek {
			penalty += c.Weight() / 4
		}
	}

	if penalty > 0 {
		return false, penalty
	}
	return true, 0
}
