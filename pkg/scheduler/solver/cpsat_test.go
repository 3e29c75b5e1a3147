package solver

import (
	"context"
	"testing"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

func TestCPSATSolvesSmallInstance(t *testing.T) {
	people := []*model.Person{newResident("R1", 2), newResident("R2", 2)}
	slots := []*model.Slot{
		newSlotPtr("2026-03-02", model.PeriodAM),
		newSlotPtr("2026-03-03", model.PeriodAM),
	}
	schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})

	solver := NewCPSATSolver(minimalManager(), Config{})
	result, err := solver.Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if !result.Feasible {
		t.Fatalf("小规模实例应可行: %s", result.Message)
	}
	if !result.Optimal {
		t.Error("搜索完整结束的可行解应标记为最优")
	}
	if len(result.Assignments) != 2 {
		t.Errorf("分配数 = %d, 期望 2", len(result.Assignments))
	}
	if result.Diagnostics.NodesExplored == 0 {
		t.Error("应记录探索的节点数")
	}
}

func TestCPSATNodeBudget(t *testing.T) {
	people := []*model.Person{newResident("R1", 2), newResident("R2", 2)}
	slots := []*model.Slot{
		newSlotPtr("2026-03-02", model.PeriodAM),
		newSlotPtr("2026-03-02", model.PeriodPM),
		newSlotPtr("2026-03-03", model.PeriodAM),
	}
	schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})

	solver := NewCPSATSolver(minimalManager(), Config{MaxNodes: 1})
	result, err := solver.Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if result.Optimal {
		t.Error("节点预算耗尽的搜索不应标记为最优")
	}
	if !result.Diagnostics.TimedOut {
		t.Error("预算耗尽应在诊断信息中体现")
	}
}

func TestCPSATParallelMatchesSequential(t *testing.T) {
	build := func() ([]*model.Person, []*model.Slot, []*model.RotationTemplate) {
		return []*model.Person{newResident("R1", 2), newResident("R2", 2), newResident("R3", 1)},
			[]*model.Slot{
				newSlotPtr("2026-03-02", model.PeriodAM),
				newSlotPtr("2026-03-03", model.PeriodAM),
			},
			[]*model.RotationTemplate{newClinicTemplate("门诊")}
	}

	solveWith := func(workers int) *Result {
		people, slots, tpls := build()
		schedCtx := newSolveContext(people, slots, tpls)
		result, err := NewCPSATSolver(minimalManager(), Config{Workers: workers}).Solve(context.Background(), schedCtx)
		if err != nil {
			t.Fatalf("求解失败 (workers=%d): %v", workers, err)
		}
		return result
	}

	sequential := solveWith(1)
	parallel := solveWith(4)

	if sequential.Feasible != parallel.Feasible {
		t.Errorf("可行性不一致: %v vs %v", sequential.Feasible, parallel.Feasible)
	}
	if len(sequential.Assignments) != len(parallel.Assignments) {
		t.Errorf("分配数不一致: %d vs %d", len(sequential.Assignments), len(parallel.Assignments))
	}
	if sequential.ObjectiveScore != parallel.ObjectiveScore {
		t.Errorf("得分不一致: %.2f vs %.2f", sequential.ObjectiveScore, parallel.ObjectiveScore)
	}
}

func TestCPSATHonorsLockedAssignments(t *testing.T) {
	r1 := newResident("R1", 2)
	r2 := newResident("R2", 2)
	tpl := newClinicTemplate("门诊")
	slot := newSlotPtr("2026-03-02", model.PeriodAM)

	schedCtx := newSolveContext([]*model.Person{r1, r2}, []*model.Slot{slot}, []*model.RotationTemplate{tpl})
	locked := model.NewAssignment(r1.ID, slot, tpl.ID)
	locked.Locked = true
	schedCtx.AddAssignment(locked)

	result, err := NewCPSATSolver(minimalManager(), Config{}).Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if len(result.Assignments) != 0 {
		t.Errorf("需求已被锁定分配满足, 不应产生新分配, 实际 %d", len(result.Assignments))
	}
	if !result.Feasible {
		t.Errorf("锁定分配构成的完整方案应可行: %s", result.Message)
	}
}
