package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/rotation"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint/builtin"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/solver"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/stats"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/validator"
)

// TestFullMonthHybrid 四周完整排班：混合求解 + 合规校验 + 统计分析
func TestFullMonthHybrid(t *testing.T) {
	if testing.Short() {
		t.Skip("短模式跳过整月求解")
	}

	window := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-28"}
	templates := rotation.NewCatalog().DefaultTemplates()
	schedCtx := buildScenarioContext(window, teachingRoster(), allPeriodSlots(window), templates)

	manager := constraint.NewManager()
	if err := builtin.RegisterSet(manager, builtin.SetDefault, nil); err != nil {
		t.Fatalf("注册约束集失败: %v", err)
	}

	cfg := solver.DefaultConfig()
	cfg.Strategy = solver.StrategyHybrid
	cfg.TimeBudget = 3 * time.Second

	s, err := solver.New(cfg, manager, schedCtx)
	if err != nil {
		t.Fatalf("创建求解器失败: %v", err)
	}
	result, err := s.Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	t.Logf("策略=%s 分配数=%d 覆盖率=%.1f%% 评分=%.1f 用时=%s",
		result.Diagnostics.Strategy, result.Diagnostics.TotalAssignments,
		result.Diagnostics.FillRate, result.ObjectiveScore, result.Elapsed)

	if result.Diagnostics.Strategy != string(solver.StrategyHybrid) {
		t.Errorf("求解策略 = %s, 期望 hybrid", result.Diagnostics.Strategy)
	}
	if !result.Feasible {
		for _, v := range result.ConstraintResult.HardViolations {
			t.Logf("硬约束违反: %s", v.Message)
		}
		t.Fatal("整月排班应当可行")
	}

	// 当月第 4 个周三（2026-03-25）上下午须由不同带教医师承担
	fourthWed := make(map[model.Period][]*model.Person)
	for _, a := range schedCtx.Assignments {
		if a.Date != "2026-03-25" {
			continue
		}
		person := schedCtx.GetPerson(a.PersonID)
		if person.IsFaculty() && a.Period != model.PeriodNight {
			fourthWed[a.Period] = append(fourthWed[a.Period], person)
		}
	}
	if len(fourthWed[model.PeriodAM]) > 0 && len(fourthWed[model.PeriodPM]) > 0 {
		distinct := make(map[string]bool)
		for _, people := range fourthWed {
			for _, p := range people {
				distinct[p.Code] = true
			}
		}
		if len(distinct) < 2 {
			t.Error("第 4 个周三上下午的带教医师应至少两人")
		}
	}

	// 工时合规
	report := validator.NewValidator(nil).
		Validate(schedCtx.Assignments, schedCtx.People, schedCtx.Absences, nil, window)
	if n := len(report.ViolationsByRule[validator.RuleWeeklyHours]); n != 0 {
		t.Errorf("周工时违规数 = %d, 期望 0", n)
	}
	if n := len(report.ViolationsByRule[validator.RuleOneInSeven]); n != 0 {
		t.Errorf("七日一休违规数 = %d, 期望 0", n)
	}
	for _, pc := range report.PerPerson {
		if pc.MaxAvgWeeklyHours > 80 {
			t.Errorf("%s 周均工时 %.1f 超过 80", pc.Name, pc.MaxAvgWeeklyHours)
		}
	}

	// 统计指标自洽
	equity := stats.NewEquityAnalyzer().Analyze(schedCtx.Assignments, schedCtx.People)
	if equity.Score < 0 || equity.Score > 100 {
		t.Errorf("公平性评分 %.1f 超出 [0, 100]", equity.Score)
	}
	if equity.WorkloadGini < 0 || equity.WorkloadGini > 1 {
		t.Errorf("基尼系数 %.4f 超出 [0, 1]", equity.WorkloadGini)
	}

	coverage := stats.NewCoverageAnalyzer().
		Analyze(schedCtx.Demands, schedCtx.Slots, schedCtx.Templates, schedCtx.Assignments)
	if coverage.TotalDemands != len(schedCtx.Demands) {
		t.Errorf("覆盖统计需求数 = %d, 期望 %d", coverage.TotalDemands, len(schedCtx.Demands))
	}
	if coverage.FillRate <= 0 {
		t.Error("满足率应大于 0")
	}
	for _, date := range []string{"2026-03-01", "2026-03-28"} {
		if _, ok := coverage.DailyCoverage[date]; !ok {
			t.Errorf("缺少 %s 的单日覆盖统计", date)
		}
	}
}
