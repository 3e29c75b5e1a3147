package builtin

import (
	"testing"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// newResident 创建测试用住院医师
func newResident(name string, pgy int) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Code:      name,
		Role:      model.RoleResident,
		PGYLevel:  pgy,
		Status:    "active",
		FTE:       1,
	}
}

// newFaculty 创建测试用带教医师
func newFaculty(name string) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Code:      name,
		Role:      model.RoleFaculty,
		Status:    "active",
		FTE:       1,
	}
}

// newAdjunct 创建测试用兼职医师
func newAdjunct(name string) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Code:      name,
		Role:      model.RoleAdjunct,
		Status:    "active",
		FTE:       0.5,
	}
}

// newSlotPtr 创建测试用时段单元
func newSlotPtr(date string, period model.Period) *model.Slot {
	s := model.NewSlot(date, period)
	return &s
}

// assign 向上下文添加一条求解器分配
func assign(ctx *constraint.Context, person *model.Person, slot *model.Slot, tpl *model.RotationTemplate) *model.Assignment {
	a := model.NewAssignment(person.ID, slot, tpl.ID)
	ctx.AddAssignment(a)
	return a
}

func TestRegisterSetKnownNames(t *testing.T) {
	for _, name := range []string{SetDefault, SetMinimal, SetStrict, ""} {
		manager := constraint.NewManager()
		if err := RegisterSet(manager, name, nil); err != nil {
			t.Errorf("注册约束集 %q 失败: %v", name, err)
		}
		if manager.Count() == 0 {
			t.Errorf("约束集 %q 未注册任何约束", name)
		}
	}
}

func TestRegisterSetUnknownName(t *testing.T) {
	manager := constraint.NewManager()
	err := RegisterSet(manager, "aggressive", nil)
	if err == nil {
		t.Fatal("未知约束集应返回错误")
	}
	if !errors.Is(err, errors.CodeUnknownConstraintSet) {
		t.Errorf("错误码 = %s, 期望 %s", errors.GetCode(err), errors.CodeUnknownConstraintSet)
	}
}

func TestDefaultSetHardBeforeSoft(t *testing.T) {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager, nil)

	all := manager.GetAll()
	seenSoft := false
	for _, c := range all {
		if c.Category() == constraint.CategorySoft {
			seenSoft = true
		} else if seenSoft {
			t.Fatal("硬约束应排在软约束之前")
		}
	}

	hard := manager.GetByCategory(constraint.CategoryHard)
	if len(hard) != 11 {
		t.Errorf("默认集硬约束数量 = %d, 期望 11", len(hard))
	}
}

func TestDefaultSetEmptyContext(t *testing.T) {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager, nil)

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{newResident("R1", 1)})
	ctx.SetSlots([]*model.Slot{newSlotPtr("2026-03-02", model.PeriodAM)})

	result := manager.Evaluate(ctx)
	if !result.IsValid {
		t.Error("空排班不应违反硬约束")
	}
	if len(result.HardViolations) != 0 {
		t.Errorf("空排班硬违规数 = %d, 期望 0", len(result.HardViolations))
	}
}

func TestBlockingAbsence(t *testing.T) {
	resident := newResident("R1", 2)
	slot := newSlotPtr("2026-03-03", model.PeriodAM)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "门诊", Activity: model.ActivityClinic}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{resident})
	ctx.SetSlots([]*model.Slot{slot})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})
	ctx.SetAbsences([]*model.Absence{{
		BaseModel: model.NewBaseModel(),
		PersonID:  resident.ID,
		Type:      model.AbsenceVacation,
		StartDate: "2026-03-03",
		EndDate:   "2026-03-05",
		Blocking:  true,
	}})

	c := NewBlockingAbsenceConstraint()
	candidate := model.NewAssignment(resident.ID, slot, tpl.ID)
	if valid, _ := c.EvaluateAssignment(ctx, candidate); valid {
		t.Error("缺勤期间的候选分配应被拒绝")
	}

	ctx.AddAssignment(candidate)
	valid, _, details := c.Evaluate(ctx)
	if valid || len(details) != 1 {
		t.Errorf("应报告 1 条缺勤冲突, 实际 %d", len(details))
	}

	// 非阻断缺勤仅作记录
	ctx2 := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx2.SetPeople([]*model.Person{resident})
	ctx2.SetSlots([]*model.Slot{slot})
	ctx2.SetTemplates([]*model.RotationTemplate{tpl})
	ctx2.SetAbsences([]*model.Absence{{
		BaseModel: model.NewBaseModel(),
		PersonID:  resident.ID,
		Type:      model.AbsenceConference,
		StartDate: "2026-03-03",
		EndDate:   "2026-03-05",
		Blocking:  false,
	}})
	if valid, _ := c.EvaluateAssignment(ctx2, candidate); !valid {
		t.Error("非阻断缺勤不应拒绝分配")
	}
}

func TestPrimarySlotUniqueness(t *testing.T) {
	resident := newResident("R1", 2)
	slot := newSlotPtr("2026-03-02", model.PeriodAM)
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "门诊", Activity: model.ActivityClinic}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{resident})
	ctx.SetSlots([]*model.Slot{slot})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	c := NewPrimarySlotUniquenessConstraint()
	assign(ctx, resident, slot, tpl)

	candidate := model.NewAssignment(resident.ID, slot, tpl.ID)
	if valid, _ := c.EvaluateAssignment(ctx, candidate); valid {
		t.Error("同一医师同一时段的第二个主分配应被拒绝")
	}

	ctx.AddAssignment(candidate)
	valid, _, details := c.Evaluate(ctx)
	if valid {
		t.Error("重复主分配应判定违规")
	}
	if len(details) != 1 {
		t.Errorf("重复主分配组应只报告一次, 实际 %d", len(details))
	}
}

func TestTemplateCapacity(t *testing.T) {
	r1 := newResident("R1", 2)
	r2 := newResident("R2", 2)
	junior := newResident("R3", 1)
	slot := newSlotPtr("2026-03-02", model.PeriodAM)
	tpl := &model.RotationTemplate{
		BaseModel:     model.NewBaseModel(),
		Name:          "ICU",
		Activity:      model.ActivityInpatient,
		MaxConcurrent: 1,
		EligibleRoles: []model.Role{model.RoleResident},
		MinPGY:        2,
	}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{r1, r2, junior})
	ctx.SetSlots([]*model.Slot{slot})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	c := NewTemplateCapacityConstraint()

	// 资格不满足
	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(junior.ID, slot, tpl.ID)); valid {
		t.Error("PGY-1 不满足 MinPGY=2 的模板资格")
	}

	// 容量满后拒绝
	assign(ctx, r1, slot, tpl)
	if valid, _ := c.EvaluateAssignment(ctx, model.NewAssignment(r2.ID, slot, tpl.ID)); valid {
		t.Error("容量已满的模板应拒绝新增分配")
	}
}

func TestCoverageWeeklyMinimum(t *testing.T) {
	resident := newResident("R1", 2)
	idle := newResident("R2", 2)
	mon := newSlotPtr("2026-03-02", model.PeriodAM)
	tue := newSlotPtr("2026-03-03", model.PeriodAM)
	tpl := &model.RotationTemplate{
		BaseModel:  model.NewBaseModel(),
		Name:       "门诊",
		Activity:   model.ActivityClinic,
		MinPerWeek: 2,
	}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{resident, idle})
	ctx.SetSlots([]*model.Slot{mon, tue})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	c := NewCoverageMaximizationConstraint()

	// 周内只承担 1 次，低于下限 2
	assign(ctx, resident, mon, tpl)
	valid, penalty, details := c.Evaluate(ctx)
	if valid {
		t.Error("低于每周下限应计罚")
	}
	found := false
	for _, d := range details {
		if d.PersonID == resident.ID {
			found = true
		}
		if d.PersonID == idle.ID {
			t.Error("未参与该轮转的医师不应计每周下限缺口")
		}
	}
	if !found {
		t.Error("应报告周次数缺口")
	}
	if penalty != c.Weight() {
		t.Errorf("缺口惩罚 = %d, 期望 %d", penalty, c.Weight())
	}

	// 补足第 2 次后不再计罚
	assign(ctx, resident, tue, tpl)
	if valid, _, _ := c.Evaluate(ctx); !valid {
		t.Error("达到每周下限后不应计罚")
	}
}

func TestCoverageWeeklyTargetSteering(t *testing.T) {
	resident := newResident("R1", 2)
	mon := newSlotPtr("2026-03-02", model.PeriodAM)
	tue := newSlotPtr("2026-03-03", model.PeriodAM)
	tpl := &model.RotationTemplate{
		BaseModel:     model.NewBaseModel(),
		Name:          "门诊",
		Activity:      model.ActivityClinic,
		TargetPerWeek: 1,
	}

	ctx := constraint.NewContext("2026-03-01", "2026-03-07")
	ctx.SetPeople([]*model.Person{resident})
	ctx.SetSlots([]*model.Slot{mon, tue})
	ctx.SetTemplates([]*model.RotationTemplate{tpl})

	c := NewCoverageMaximizationConstraint()

	// 首次分配在目标范围内
	candidate := model.NewAssignment(resident.ID, mon, tpl.ID)
	if valid, _ := c.EvaluateAssignment(ctx, candidate); !valid {
		t.Error("未达每周目标的分配不应计罚")
	}

	// 超出每周目标的追加分配轻微计罚
	ctx.AddAssignment(candidate)
	extra := model.NewAssignment(resident.ID, tue, tpl.ID)
	valid, penalty := c.EvaluateAssignment(ctx, extra)
	if valid {
		t.Error("超出每周目标的分配应计罚")
	}
	if penalty != c.Weight()/4 {
		t.Errorf("超目标惩罚 = %d, 期望 %d", penalty, c.Weight()/4)
	}
}

func TestWorkloadEquityTargetShare(t *testing.T) {
	heavy := newResident("R1", 2)
	heavy.TargetHoursPerWeek = 90
	light := newResident("R2", 2)
	light.TargetHoursPerWeek = 30
	tpl := &model.RotationTemplate{BaseModel: model.NewBaseModel(), Name: "门诊", Activity: model.ActivityClinic}

	slots := []*model.Slot{
		newSlotPtr("2026-03-02", model.PeriodAM),
		newSlotPtr("2026-03-03", model.PeriodAM),
		newSlotPtr("2026-03-04", model.PeriodAM),
		newSlotPtr("2026-03-05", model.PeriodAM),
	}

	buildCtx := func(a, b *model.Person) *constraint.Context {
		ctx := constraint.NewContext("2026-03-01", "2026-03-07")
		ctx.SetPeople([]*model.Person{a, b})
		ctx.SetSlots(slots)
		ctx.SetTemplates([]*model.RotationTemplate{tpl})
		for _, slot := range slots {
			assign(ctx, a, slot, tpl)
		}
		return ctx
	}

	c := NewWorkloadEquityConstraint(5)

	// 高目标医师承担全部 20 小时，正好落在各自目标份额附近
	if valid, _, _ := c.Evaluate(buildCtx(heavy, light)); !valid {
		t.Error("工时与目标份额一致时不应计罚")
	}

	// 目标相同时同样的分布构成失衡
	even1 := newResident("R3", 2)
	even1.TargetHoursPerWeek = 60
	even2 := newResident("R4", 2)
	even2.TargetHoursPerWeek = 60
	valid, _, details := c.Evaluate(buildCtx(even1, even2))
	if valid {
		t.Error("目标相同的医师工时悬殊时应计罚")
	}
	if len(details) != 2 {
		t.Errorf("违规记录数 = %d, 期望 2", len(details))
	}
}
