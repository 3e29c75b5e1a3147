package builtin

import (
	"testing"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// callContext 构造带值班模板的周五夜班上下文（2026-03-06 为周五）
func callContext(people ...*model.Person) (*constraint.Context, *model.Slot, *model.RotationTemplate) {
	night := newSlotPtr("2026-03-06", model.PeriodNight)
	call := &model.RotationTemplate{
		BaseModel: model.NewBaseModel(),
		Name:      "夜班值班",
		Activity:  model.ActivityCall,
		Periods:   []model.Period{model.PeriodNight},
	}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople(people)
	ctx.SetSlots([]*model.Slot{night})
	ctx.SetTemplates([]*model.RotationTemplate{call})
	return ctx, night, call
}

func TestCallCoverageUnfilled(t *testing.T) {
	faculty := newFaculty("F1")
	ctx, _, _ := callContext(faculty)

	c := NewCallCoverageConstraint([]time.Weekday{time.Friday})
	valid, _, details := c.Evaluate(ctx)
	if valid {
		t.Error("周五夜班无人值班应判定违规")
	}
	if len(details) != 1 {
		t.Errorf("应报告 1 条缺员违规, 实际 %d", len(details))
	}
}

func TestCallCoverageExactlyOne(t *testing.T) {
	f1 := newFaculty("F1")
	f2 := newFaculty("F2")
	ctx, night, call := callContext(f1, f2)
	assign(ctx, f1, night, call)

	c := NewCallCoverageConstraint([]time.Weekday{time.Friday})
	if valid, _, _ := c.Evaluate(ctx); !valid {
		t.Error("恰好一人值班应合规")
	}

	// 第二人应被拒绝
	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(f2.ID, night, call.ID)); valid {
		t.Error("已有人值班的夜班应拒绝第二人")
	}
}

func TestCallCoverageEligibility(t *testing.T) {
	resident := newResident("R1", 3)
	adjunct := newAdjunct("A1")
	faculty := newFaculty("F1")
	ctx, night, call := callContext(resident, adjunct, faculty)

	c := NewCallCoverageConstraint([]time.Weekday{time.Friday})

	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(resident.ID, night, call.ID)); valid {
		t.Error("住院医师不得单独值夜班")
	}

	// 兼职医师不参与求解器生成的值班
	solverCall := model.NewAssignment(adjunct.ID, night, call.ID)
	if valid, _ := c.EvaluateAssignment(ctx, solverCall); valid {
		t.Error("兼职医师不参与自动值班分配")
	}

	// 手工录入的兼职值班可以接受
	manualCall := model.NewAssignment(adjunct.ID, night, call.ID)
	manualCall.Source = model.SourceManual
	if valid, _ := c.EvaluateAssignment(ctx, manualCall); !valid {
		t.Error("手工录入的兼职值班应被接受")
	}

	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(faculty.ID, night, call.ID)); !valid {
		t.Error("带教医师值夜班应被接受")
	}
}

func TestCallCoverageAnyAbsenceBlocks(t *testing.T) {
	faculty := newFaculty("F1")
	ctx, night, call := callContext(faculty)

	// 非阻断缺勤同样阻止值班
	ctx.SetAbsences([]*model.Absence{{
		BaseModel: model.NewBaseModel(),
		PersonID:  faculty.ID,
		Type:      model.AbsenceConference,
		StartDate: "2026-03-06",
		EndDate:   "2026-03-06",
		Blocking:  false,
	}})

	c := NewCallCoverageConstraint([]time.Weekday{time.Friday})
	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(faculty.ID, night, call.ID)); valid {
		t.Error("有缺勤记录的日期不得值班")
	}
}

func TestCallCoverageNonCallWeekday(t *testing.T) {
	faculty := newFaculty("F1")
	ctx, _, call := callContext(faculty)

	// 周一不在值班星期内
	monday := newSlotPtr("2026-03-02", model.PeriodNight)
	ctx.SetSlots([]*model.Slot{monday})

	c := NewCallCoverageConstraint([]time.Weekday{time.Friday})
	if valid, _, _ := c.Evaluate(ctx); !valid {
		t.Error("非值班星期的夜班不需要覆盖")
	}
	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(faculty.ID, monday, call.ID)); !valid {
		t.Error("非值班星期的夜班分配不受值班规则限制")
	}
}
