package builtin

import (
	"testing"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// fourWeekContext 构造 2026-03-01（周日）起四周的上下文
func fourWeekContext(people ...*model.Person) *constraint.Context {
	ctx := constraint.NewContext("2026-03-01", "2026-03-28")
	ctx.SetPeople(people)
	ctx.SetSlots([]*model.Slot{newSlotPtr("2026-03-01", model.PeriodAM)})
	return ctx
}

func TestWeeklyHourCeilingBoundaryExact(t *testing.T) {
	resident := newResident("R1", 2)
	ctx := fourWeekContext(resident)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "病房", Activity: model.ActivityInpatient}
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	// 每周恰好 10 小时，4 周平均恰好等于上限
	for _, date := range []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23"} {
		a := model.NewAssignment(resident.ID, newSlotPtr(date, model.PeriodAM), tpl.ID)
		a.Hours = 10
		ctx.AddAssignment(a)
	}

	c := NewWeeklyHourCeilingConstraint(10)
	valid, penalty, _ := c.Evaluate(ctx)
	if !valid || penalty != 0 {
		t.Errorf("平均每周恰好等于上限应合规, valid=%v penalty=%d", valid, penalty)
	}

	// 再加 5 小时后首个窗口平均 11.25 小时，超限
	extra := model.NewAssignment(resident.ID, newSlotPtr("2026-03-04", model.PeriodAM), tpl.ID)
	extra.Hours = 5
	ctx.AddAssignment(extra)

	valid, _, details := c.Evaluate(ctx)
	if valid {
		t.Error("超过上限应判定违规")
	}
	if len(details) == 0 {
		t.Error("应报告超限窗口")
	}
}

func TestWeeklyHourCeilingEvaluateAssignment(t *testing.T) {
	resident := newResident("R1", 2)
	ctx := fourWeekContext(resident)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "病房", Activity: model.ActivityInpatient}
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	for _, date := range []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23"} {
		a := model.NewAssignment(resident.ID, newSlotPtr(date, model.PeriodAM), tpl.ID)
		a.Hours = 10
		ctx.AddAssignment(a)
	}

	c := NewWeeklyHourCeilingConstraint(10)
	candidate := model.NewAssignment(resident.ID, newSlotPtr("2026-03-05", model.PeriodAM), tpl.ID)
	candidate.Hours = 10
	if valid, _ := c.EvaluateAssignment(ctx, candidate); valid {
		t.Error("加入候选后窗口超限，应被拒绝")
	}
}

func TestOneInSevenRestAbsenceHoldsCounter(t *testing.T) {
	resident := newResident("R1", 2)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "病房", Activity: model.ActivityInpatient}

	build := func(withAbsence bool) *constraint.Context {
		ctx := constraint.NewContext("2026-03-01", "2026-03-14")
		ctx.SetPeople([]*model.Person{resident})
		ctx.SetSlots([]*model.Slot{newSlotPtr("2026-03-01", model.PeriodAM)})
		ctx.SetTemplates([]*model.RotationTemplate{tpl})
		if withAbsence {
			ctx.SetAbsences([]*model.Absence{{
				BaseModel: model.NewBaseModel(),
				PersonID:  resident.ID,
				Type:      model.AbsenceSick,
				StartDate: "2026-03-05",
				EndDate:   "2026-03-05",
			}})
		}
		for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-06"} {
			ctx.AddAssignment(model.NewAssignment(resident.ID, newSlotPtr(date, model.PeriodAM), tpl.ID))
		}
		return ctx
	}

	c := NewOneInSevenRestConstraint(3)

	// 缺勤日保持计数：2,3,4 在岗，5 缺勤（保持 3），6 在岗 → 连续 4 天，违规
	valid, _, _ := c.Evaluate(build(true))
	if valid {
		t.Error("缺勤日保持计数，3 月 6 日应构成第 4 个连续在岗日")
	}

	// 排定休息日清零计数：5 日真正休息 → 6 日重新从 1 起算，合规
	valid, _, _ = c.Evaluate(build(false))
	if !valid {
		t.Error("休息日应将连续在岗计数清零")
	}
}

func TestOneInSevenRestEvaluateAssignment(t *testing.T) {
	resident := newResident("R1", 2)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "病房", Activity: model.ActivityInpatient}

	ctx := constraint.NewContext("2026-03-01", "2026-03-14")
	ctx.SetPeople([]*model.Person{resident})
	ctx.SetSlots([]*model.Slot{newSlotPtr("2026-03-01", model.PeriodAM)})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})
	ctx.SetAbsences([]*model.Absence{{
		BaseModel: model.NewBaseModel(),
		PersonID:  resident.ID,
		Type:      model.AbsenceSick,
		StartDate: "2026-03-05",
		EndDate:   "2026-03-05",
	}})
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		ctx.AddAssignment(model.NewAssignment(resident.ID, newSlotPtr(date, model.PeriodAM), tpl.ID))
	}

	c := NewOneInSevenRestConstraint(3)

	// 缺勤隔开的 3 月 6 日仍会形成第 4 个连续在岗日
	candidate := model.NewAssignment(resident.ID, newSlotPtr("2026-03-06", model.PeriodAM), tpl.ID)
	if valid, _ := c.EvaluateAssignment(ctx, candidate); valid {
		t.Error("跨缺勤的连续在岗超限应被拒绝")
	}

	// 同日再加一个时段不延长连续段
	sameDay := model.NewAssignment(resident.ID, newSlotPtr("2026-03-04", model.PeriodPM), tpl.ID)
	if valid, _ := c.EvaluateAssignment(ctx, sameDay); !valid {
		t.Error("同日第二个时段不应触发七日一休")
	}
}
