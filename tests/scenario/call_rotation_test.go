package scenario

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/rotation"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint/builtin"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/solver"
)

// callTemplate 从默认目录中取出夜班值班模板
func callTemplate(t *testing.T) *model.RotationTemplate {
	t.Helper()
	for _, tpl := range rotation.NewCatalog().DefaultTemplates() {
		if tpl.Activity == model.ActivityCall {
			return tpl
		}
	}
	t.Fatal("默认目录缺少值班模板")
	return nil
}

// nightSlots 生成窗口内的夜班时段单元
func nightSlots(window model.DateRange) []*model.Slot {
	var slots []*model.Slot
	for _, date := range model.DatesBetween(window) {
		slot := model.NewSlot(date, model.PeriodNight)
		slots = append(slots, &slot)
	}
	return slots
}

// solveCallRotation 对两周值班表执行一次回溯求解
func solveCallRotation(t *testing.T, window model.DateRange, people []*model.Person, tpl *model.RotationTemplate) (*solver.Result, *constraint.Context) {
	t.Helper()

	schedCtx := buildScenarioContext(window, people, nightSlots(window), []*model.RotationTemplate{tpl})

	manager := constraint.NewManager()
	if err := builtin.RegisterSet(manager, builtin.SetDefault, nil); err != nil {
		t.Fatalf("注册约束集失败: %v", err)
	}

	cfg := solver.DefaultConfig()
	cfg.Strategy = solver.StrategyCPSAT
	cfg.Workers = 1
	cfg.MaxNodes = 50000
	cfg.TimeBudget = 0

	s, err := solver.New(cfg, manager, schedCtx)
	if err != nil {
		t.Fatalf("创建求解器失败: %v", err)
	}
	result, err := s.Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	return result, schedCtx
}

// TestCallRotationTwoWeeks 两周夜班值班轮转
func TestCallRotationTwoWeeks(t *testing.T) {
	window := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-14"}
	people := []*model.Person{
		scenarioPerson("赵六", "F001", model.RoleFaculty, 0),
		scenarioPerson("孙七", "F002", model.RoleFaculty, 0),
		scenarioPerson("周八", "F003", model.RoleFaculty, 0),
		scenarioPerson("吴九", "A001", model.RoleAdjunct, 0),
	}
	tpl := callTemplate(t)

	result, schedCtx := solveCallRotation(t, window, people, tpl)
	if !result.Feasible {
		t.Fatal("三名带教覆盖两周值班应当可行")
	}

	byDate := make(map[string][]*model.Assignment)
	for _, a := range schedCtx.Assignments {
		byDate[a.Date] = append(byDate[a.Date], a)
	}
	for _, date := range model.DatesBetween(window) {
		assignments := byDate[date]
		if len(assignments) != 1 {
			t.Errorf("%s 值班人数 = %d, 期望 1", date, len(assignments))
			continue
		}
		person := schedCtx.GetPerson(assignments[0].PersonID)
		if person.Role == model.RoleAdjunct {
			t.Errorf("%s 值班被分配给兼职医师 %s", date, person.Name)
		}
	}

	// 值班负荷应在三名带教之间轮转，无人独揽
	countByPerson := make(map[string]int)
	for _, a := range schedCtx.Assignments {
		countByPerson[schedCtx.GetPerson(a.PersonID).Code]++
	}
	for code, count := range countByPerson {
		if count > 7 {
			t.Errorf("%s 值班 %d 次，两周内应不超过 7 次", code, count)
		}
	}
}

// TestCallRotationDeterministic 相同输入两次求解产出相同值班表
func TestCallRotationDeterministic(t *testing.T) {
	window := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-14"}
	people := []*model.Person{
		scenarioPerson("赵六", "F001", model.RoleFaculty, 0),
		scenarioPerson("孙七", "F002", model.RoleFaculty, 0),
		scenarioPerson("周八", "F003", model.RoleFaculty, 0),
	}
	tpl := callTemplate(t)

	var rosters []string
	for run := 0; run < 2; run++ {
		_, schedCtx := solveCallRotation(t, window, people, tpl)

		var entries []string
		for _, a := range schedCtx.Assignments {
			entries = append(entries, fmt.Sprintf("%s=%s", a.Date, schedCtx.GetPerson(a.PersonID).Code))
		}
		sort.Strings(entries)
		rosters = append(rosters, fmt.Sprint(entries))
	}

	if rosters[0] != rosters[1] {
		t.Errorf("两次求解值班表不一致:\n第一次: %s\n第二次: %s", rosters[0], rosters[1])
	}
}
