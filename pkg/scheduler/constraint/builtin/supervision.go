// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// JuniorOnlySlotConstraint 低年级专属时段约束
// 指定星期与时段的门诊时段只接收第一年住院医师（带教医师不受限）
type JuniorOnlySlotConstraint struct {
	*BaseConstraint
	weekday time.Weekday
	period  model.Period
}

// NewJuniorOnlySlotConstraint 创建低年级专属时段约束
func NewJuniorOnlySlotConstraint(weekday time.Weekday, period model.Period) *JuniorOnlySlotConstraint {
	return &JuniorOnlySlotConstraint{
		BaseConstraint: NewBaseConstraint(
			"低年级专属时段",
			constraint.TypeJuniorOnlySlot,
			constraint.CategoryHard,
			100,
		),
		weekday: weekday,
		period:  period,
	}
}

// matches 检查时段单元是否为专属时段
func (c *JuniorOnlySlotConstraint) matches(slot *model.Slot) bool {
	return slot != nil && slot.Weekday() == c.weekday && slot.Period == c.period
}

// Evaluate 评估整个排班
func (c *JuniorOnlySlotConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		slot := ctx.GetSlot(a.SlotID)
		tpl := ctx.GetTemplate(a.TemplateID)
		person := ctx.GetPerson(a.PersonID)
		if person == nil || tpl == nil || !c.matches(slot) {
			continue
		}
		if tpl.Activity != model.ActivityClinic || !person.IsResident() {
			continue
		}
		if person.IsJunior() {
			continue
		}
		isValid = false
		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(
			a.PersonID, a.SlotID, a.Date,
			fmt.Sprintf("医师 %s (PGY-%d) 被排入低年级专属门诊 %s %s", person.Name, person.PGYLevel, a.Date, a.Period),
			penalty,
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *JuniorOnlySlotConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	slot := ctx.GetSlot(a.SlotID)
	tpl := ctx.GetTemplate(a.TemplateID)
	person := ctx.GetPerson(a.PersonID)
	if person == nil || tpl == nil || !c.matches(slot) {
		return true, 0
	}
	if tpl.Activity != model.ActivityClinic || !person.IsResident() {
		return true, 0
	}
	if !person.IsJunior() {
		return false, c.Weight()
	}
	return true, 0
}

// FacultySupervisorSlotConstraint 带教在场约束
// 指定星期的门诊时段必须有带教医师在场；当月第 4 个该星期几的
// 上下午须由两名不同的带教医师分别承担
type FacultySupervisorSlotConstraint struct {
	*BaseConstraint
	weekday time.Weekday
	periods []model.Period
}

// NewFacultySupervisorSlotConstraint 创建带教在场约束
func NewFacultySupervisorSlotConstraint(weekday time.Weekday, periods []model.Period) *FacultySupervisorSlotConstraint {
	if len(periods) == 0 {
		periods = []model.Period{model.PeriodAM, model.PeriodPM}
	}
	return &FacultySupervisorSlotConstraint{
		BaseConstraint: NewBaseConstraint(
			"带教在场",
			constraint.TypeFacultySupervisorSlot,
			constraint.CategoryHard,
			100,
		),
		weekday: weekday,
		periods: periods,
	}
}

// matches 检查时段单元是否为带教时段
func (c *FacultySupervisorSlotConstraint) matches(slot *model.Slot) bool {
	if slot == nil || slot.Weekday() != c.weekday {
		return false
	}
	for _, p := range c.periods {
		if slot.Period == p {
			return true
		}
	}
	return false
}

// facultyOnSlot 返回某时段单元上在场的带教医师集合
func (c *FacultySupervisorSlotConstraint) facultyOnSlot(ctx *constraint.Context, slotID uuid.UUID) map[uuid.UUID]bool {
	faculty := make(map[uuid.UUID]bool)
	for _, a := range ctx.GetSlotAssignments(slotID) {
		person := ctx.GetPerson(a.PersonID)
		if person != nil && person.IsFaculty() {
			faculty[person.ID] = true
		}
	}
	return faculty
}

// Evaluate 评估整个排班
func (c *FacultySupervisorSlotConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	facultyByDatePeriod := make(map[string]map[uuid.UUID]bool)
	for _, slot := range ctx.Slots {
		if !c.matches(slot) {
			continue
		}
		faculty := c.facultyOnSlot(ctx, slot.ID)
		key := slot.Date + "/" + string(slot.Period)
		if facultyByDatePeriod[key] == nil {
			facultyByDatePeriod[key] = make(map[uuid.UUID]bool)
		}
		for id := range faculty {
			facultyByDatePeriod[key][id] = true
		}

		if len(faculty) == 0 {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, slot.ID, slot.Date,
				fmt.Sprintf("%s %s 门诊无带教医师在场", slot.Date, slot.Period),
				penalty,
			))
		}
	}

	// 当月第 4 个该星期几：上下午合计须至少两名不同带教
	checkedDates := make(map[string]bool)
	for _, slot := range ctx.Slots {
		if !c.matches(slot) || checkedDates[slot.Date] {
			continue
		}
		checkedDates[slot.Date] = true
		if model.WeekdayInstanceOfMonth(slot.Date) != 4 || len(c.periods) < 2 {
			continue
		}
		distinct := make(map[uuid.UUID]bool)
		covered := 0
		for _, p := range c.periods {
			key := slot.Date + "/" + string(p)
			if len(facultyByDatePeriod[key]) > 0 {
				covered++
			}
			for id := range facultyByDatePeriod[key] {
				distinct[id] = true
			}
		}
		if covered == len(c.periods) && len(distinct) < 2 {
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, slot.ID, slot.Date,
				fmt.Sprintf("%s 为当月第 4 个带教日，上下午须由不同带教医师承担", slot.Date),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
// 带教到场只会改善覆盖，仅在第 4 个带教日重复带教时拒绝
func (c *FacultySupervisorSlotConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	person := ctx.GetPerson(a.PersonID)
	slot := ctx.GetSlot(a.SlotID)
	if person == nil || !person.IsFaculty() || !c.matches(slot) {
		return true, 0
	}
	if model.WeekdayInstanceOfMonth(a.Date) != 4 {
		return true, 0
	}

	// 同一带教医师不得同时承担第 4 个带教日的另一时段
	for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
		if existing.Date != a.Date || existing.Period == a.Period {
			continue
		}
		eslot := ctx.GetSlot(existing.SlotID)
		if c.matches(eslot) {
			return false, c.Weight()
		}
	}
	return true, 0
}

// SupervisionRatioConstraint 带教比例约束
// 同一住院病房轮转周内，住院医师人数不得超过带教医师人数的配比上限
type SupervisionRatioConstraint struct {
	*BaseConstraint
	ratio int
}

// NewSupervisionRatioConstraint 创建带教比例约束
func NewSupervisionRatioConstraint(ratio int) *SupervisionRatioConstraint {
	if ratio <= 0 {
		ratio = 4
	}
	return &SupervisionRatioConstraint{
		BaseConstraint: NewBaseConstraint(
			"带教比例",
			constraint.TypeSupervisionRatio,
			constraint.CategoryHard,
			100,
		),
		ratio: ratio,
	}
}

// weekCounts 统计某模板某周的住院医师与带教医师人数
func (c *SupervisionRatioConstraint) weekCounts(ctx *constraint.Context, tplID uuid.UUID, weekStart string) (residents, faculty int) {
	weekEnd := model.AddDays(weekStart, 6)
	seenRes := make(map[uuid.UUID]bool)
	seenFac := make(map[uuid.UUID]bool)
	for _, a := range ctx.Assignments {
		if a.TemplateID != tplID || a.Date < weekStart || a.Date > weekEnd {
			continue
		}
		person := ctx.GetPerson(a.PersonID)
		if person == nil {
			continue
		}
		if person.IsResident() {
			seenRes[person.ID] = true
		} else if person.IsFaculty() {
			seenFac[person.ID] = true
		}
	}
	return len(seenRes), len(seenFac)
}

// Evaluate 评估整个排班
func (c *SupervisionRatioConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	seen := make(map[string]bool)
	for _, a := range ctx.Assignments {
		tpl := ctx.GetTemplate(a.TemplateID)
		if tpl == nil || tpl.Activity != model.ActivityInpatient {
			continue
		}
		weekStart := model.WeekStart(a.Date)
		key := a.TemplateID.String() + "/" + weekStart
		if seen[key] {
			continue
		}
		seen[key] = true

		residents, faculty := c.weekCounts(ctx, a.TemplateID, weekStart)
		// 无带教时按一名待补带教计算配比，缺员由覆盖约束暴露
		effective := faculty
		if effective == 0 {
			effective = 1
		}
		if residents > c.ratio*effective {
			isValid = false
			penalty := c.Weight() * (residents - c.ratio*effective)
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				uuid.Nil, uuid.Nil, weekStart,
				fmt.Sprintf("%s 在周 %s 有 %d 名住院医师对 %d 名带教，超过 1:%d 配比", tpl.Name, weekStart, residents, faculty, c.ratio),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *SupervisionRatioConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	person := ctx.GetPerson(a.PersonID)
	tpl := ctx.GetTemplate(a.TemplateID)
	if person == nil || tpl == nil || tpl.Activity != model.ActivityInpatient {
		return true, 0
	}
	if !person.IsResident() {
		return true, 0
	}

	weekStart := model.WeekStart(a.Date)
	residents, faculty := c.weekCounts(ctx, a.TemplateID, weekStart)

	// 候选是否为该周新增的住院医师
	already := false
	weekEnd := model.AddDays(weekStart, 6)
	for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
		if existing.TemplateID == a.TemplateID && existing.Date >= weekStart && existing.Date <= weekEnd {
			already = true
			break
		}
	}
	if already {
		return true, 0
	}

	effective := faculty
	if effective == 0 {
		effective = 1
	}
	if residents+1 > c.ratio*effective {
		return false, c.Weight()
	}
	return true, 0
}
