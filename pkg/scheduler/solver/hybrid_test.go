package solver

import (
	"context"
	"testing"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

func TestHybridSolvesSmallInstance(t *testing.T) {
	people := []*model.Person{newResident("R1", 2), newResident("R2", 2)}
	slots := []*model.Slot{
		newSlotPtr("2026-03-02", model.PeriodAM),
		newSlotPtr("2026-03-03", model.PeriodAM),
	}
	schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})

	solver := NewHybridSolver(minimalManager(), Config{ExactBackend: StrategyCPSAT})
	result, err := solver.Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if !result.Feasible {
		t.Fatalf("小规模实例应可行: %s", result.Message)
	}
	if len(result.Assignments) != 2 {
		t.Errorf("分配数 = %d, 期望 2", len(result.Assignments))
	}
	// 采纳的方案已写回原上下文
	if len(schedCtx.Assignments) != 2 {
		t.Errorf("上下文分配数 = %d, 期望 2", len(schedCtx.Assignments))
	}
}

func TestHybridExactNotWorseThanGreedy(t *testing.T) {
	build := func() *Result {
		people := []*model.Person{newResident("R1", 2), newResident("R2", 2), newResident("R3", 2)}
		slots := []*model.Slot{
			newSlotPtr("2026-03-02", model.PeriodAM),
			newSlotPtr("2026-03-02", model.PeriodPM),
			newSlotPtr("2026-03-03", model.PeriodAM),
		}
		schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})
		result, err := NewHybridSolver(minimalManager(), Config{ExactBackend: StrategyCPSAT}).Solve(context.Background(), schedCtx)
		if err != nil {
			t.Fatalf("求解失败: %v", err)
		}
		return result
	}

	greedyOnly := func() *Result {
		people := []*model.Person{newResident("R1", 2), newResident("R2", 2), newResident("R3", 2)}
		slots := []*model.Slot{
			newSlotPtr("2026-03-02", model.PeriodAM),
			newSlotPtr("2026-03-02", model.PeriodPM),
			newSlotPtr("2026-03-03", model.PeriodAM),
		}
		schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})
		result, err := NewGreedySolver(minimalManager(), Config{}).Solve(context.Background(), schedCtx)
		if err != nil {
			t.Fatalf("求解失败: %v", err)
		}
		return result
	}

	hybrid := build()
	greedy := greedyOnly()
	if hybrid.ObjectiveScore < greedy.ObjectiveScore {
		t.Errorf("混合求解得分 %.2f 低于纯贪心 %.2f", hybrid.ObjectiveScore, greedy.ObjectiveScore)
	}
}

func TestHybridExhaustedBudgetKeepsGreedyIncumbent(t *testing.T) {
	people := []*model.Person{newResident("R1", 2)}
	slots := []*model.Slot{newSlotPtr("2026-03-02", model.PeriodAM)}
	schedCtx := newSolveContext(people, slots, []*model.RotationTemplate{newClinicTemplate("门诊")})

	// 预算小到贪心阶段即耗尽，精确阶段被跳过
	cfg := Config{ExactBackend: StrategyCPSAT, TimeBudget: time.Nanosecond}
	result, err := NewHybridSolver(minimalManager(), cfg).Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	if result.Optimal {
		t.Error("预算耗尽时不应声明最优")
	}
	if !result.Diagnostics.TimedOut {
		t.Error("超时应在诊断信息中体现")
	}
	if result.Diagnostics.NodesExplored != 0 {
		t.Error("精确阶段被跳过时不应有节点计数")
	}
}

func TestHybridDefaultsExactBackend(t *testing.T) {
	s := NewHybridSolver(minimalManager(), Config{ExactBackend: "annealing"})
	if s.cfg.ExactBackend != StrategyCPSAT {
		t.Errorf("非法精确后端应回退为 %s, 实际 %s", StrategyCPSAT, s.cfg.ExactBackend)
	}
}
