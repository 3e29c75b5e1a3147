// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// BlockingAbsenceConstraint 阻断性缺勤约束
// 医师在阻断性缺勤覆盖的日期不得被分配
type BlockingAbsenceConstraint struct {
	*BaseConstraint
}

// NewBlockingAbsenceConstraint 创建阻断性缺勤约束
func NewBlockingAbsenceConstraint() *BlockingAbsenceConstraint {
	return &BlockingAbsenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"阻断性缺勤",
			constraint.TypeBlockingAbsence,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *BlockingAbsenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		if !ctx.HasBlockingAbsence(a.PersonID, a.Date) {
			continue
		}
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
			fmt.Sprintf("医师 %s 在 %s 处于缺勤状态，不得排班", name, a.Date),
			penalty,
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选分配
func (c *BlockingAbsenceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.HasBlockingAbsence(a.PersonID, a.Date) {
		return false, c.Weight()
	}
	return true, 0
}
