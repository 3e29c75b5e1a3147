// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// WeeklyHourCeilingConstraint 周时长上限约束
// 任意连续 4 周窗口内平均每周工时不得超过上限，恰好等于上限视为合规
type WeeklyHourCeilingConstraint struct {
	*BaseConstraint
	ceiling float64
}

// NewWeeklyHourCeilingConstraint 创建周时长上限约束
func NewWeeklyHourCeilingConstraint(ceiling float64) *WeeklyHourCeilingConstraint {
	if ceiling <= 0 {
		ceiling = 80
	}
	return &WeeklyHourCeilingConstraint{
		BaseConstraint: NewBaseConstraint(
			"周时长上限",
			constraint.TypeWeeklyHourCeiling,
			constraint.CategoryHard,
			100,
		),
		ceiling: ceiling,
	}
}

// windows 返回排班范围内的滚动 4 周窗口起始日（按 7 天步进）
func (c *WeeklyHourCeilingConstraint) windows(ctx *constraint.Context) []string {
	base := model.WeekStart(ctx.StartDate)
	var starts []string
	for ws := base; ws <= ctx.EndDate; ws = model.AddDays(ws, 7) {
		starts = append(starts, ws)
	}
	return starts
}

// Evaluate 评估整个排班
func (c *WeeklyHourCeilingConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	starts := c.windows(ctx)
	for _, person := range ctx.People {
		for _, ws := range starts {
			we := model.AddDays(ws, 27)
			hours := ctx.GetPersonHoursInRange(person.ID, ws, we)
			avg := hours / 4
			if avg > c.ceiling {
				isValid = false
				penalty := c.Weight() * int(avg-c.ceiling+1)
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					person.ID, uuid.Nil, ws,
					fmt.Sprintf("医师 %s 在 %s 起的 4 周内平均每周 %.1f 小时，超过上限 %.0f", person.Name, ws, avg, c.ceiling),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *WeeklyHourCeilingConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	// 候选日期所在的各个滚动窗口加上候选工时后校验
	base := model.WeekStart(ctx.StartDate)
	for ws := base; ws <= a.Date; ws = model.AddDays(ws, 7) {
		we := model.AddDays(ws, 27)
		if a.Date > we {
			continue
		}
		hours := ctx.GetPersonHoursInRange(a.PersonID, ws, we) + a.Hours
		if hours/4 > c.ceiling {
			return false, c.Weight()
		}
	}
	return true, 0
}

// OneInSevenRestConstraint 七日一休约束
// 连续在岗天数不得超过上限；排定的休息日使计数归零，
// 缺勤日保持计数不变（既不累加也不清零）
type OneInSevenRestConstraint struct {
	*BaseConstraint
	maxConsecutive int
}

// NewOneInSevenRestConstraint 创建七日一休约束
func NewOneInSevenRestConstraint(maxConsecutive int) *OneInSevenRestConstraint {
	if maxConsecutive <= 0 {
		maxConsecutive = 6
	}
	return &OneInSevenRestConstraint{
		BaseConstraint: NewBaseConstraint(
			"七日一休",
			constraint.TypeOneInSevenRest,
			constraint.CategoryHard,
			100,
		),
		maxConsecutive: maxConsecutive,
	}
}

// Evaluate 评估整个排班
func (c *OneInSevenRestConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	dates := model.DatesBetween(model.DateRange{StartDate: ctx.StartDate, EndDate: ctx.EndDate})

	for _, person := range ctx.People {
		assigned := make(map[string]bool)
		for _, a := range ctx.GetPersonAssignments(person.ID) {
			assigned[a.Date] = true
		}

		consecutive := 0
		reported := false
		for _, date := range dates {
			switch {
			case assigned[date]:
				consecutive++
			case ctx.HasAnyAbsence(person.ID, date):
				// 缺勤保持计数
			default:
				consecutive = 0
				reported = false
			}

			if consecutive > c.maxConsecutive && !reported {
				reported = true
				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					person.ID, uuid.Nil, date,
					fmt.Sprintf("医师 %s 截至 %s 已连续在岗 %d 天，超过 %d 天上限", person.Name, date, consecutive, c.maxConsecutive),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *OneInSevenRestConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	// 同一天已有分配时不会延长连续段
	for _, existing := range ctx.GetPersonAssignments(a.PersonID) {
		if existing.Date == a.Date {
			return true, 0
		}
	}
	if ctx.ConsecutiveDutyDays(a.PersonID, a.Date) > c.maxConsecutive {
		return false, c.Weight()
	}
	return true, 0
}
