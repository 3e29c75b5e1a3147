// 住院医师排班求解器
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/internal/config"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/internal/constraints"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/internal/store"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/rotation"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint/builtin"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/solver"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/stats"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/validator"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Report 一次求解运行的完整输出
type Report struct {
	Window      model.DateRange             `json:"window"`
	Strategy    string                      `json:"strategy"`
	Solve       *solver.Result              `json:"solve"`
	Compliance  *validator.ComplianceReport `json:"compliance"`
	Equity      *stats.EquityMetrics        `json:"equity"`
	Coverage    *stats.CoverageMetrics      `json:"coverage"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	var (
		startDate = flag.String("start", model.FormatDate(time.Now()), "排班起始日期 (YYYY-MM-DD)")
		days      = flag.Int("days", 28, "排班天数")
		strategy  = flag.String("strategy", cfg.Solver.Strategy, "求解策略 (greedy/cpsat/mip/hybrid/auto)")
		setName   = flag.String("set", cfg.Solver.ConstraintSet, "约束集 (default/minimal/strict)")
		budget    = flag.Duration("budget", cfg.Solver.TimeBudget, "求解时间预算 (0 不限时)")
		workers   = flag.Int("workers", cfg.Solver.Workers, "回溯搜索并行度")
		useDB     = flag.Bool("db", false, "从数据库加载排班输入")
		save      = flag.Bool("save", false, "求解后将结果写回数据库 (需 -db)")
		outPath   = flag.String("out", "", "报告输出文件 (默认标准输出)")
		showLib   = flag.Bool("constraints", false, "打印内置约束库并退出")
		version   = flag.Bool("version", false, "打印版本信息")
	)
	flag.Parse()

	if *version {
		fmt.Printf("排班求解器 v%s\nBuild: %s (%s)\n", Version, BuildTime, GitCommit)
		return
	}
	if *showLib {
		data, _ := json.MarshalIndent(constraints.LibraryResponse{Library: constraints.GetLibrary()}, "", "  ")
		fmt.Println(string(data))
		return
	}

	window := model.DateRange{
		StartDate: *startDate,
		EndDate:   model.AddDays(*startDate, *days-1),
	}

	ctx := context.Background()

	// 组装求解输入：数据库或内置演示数据集
	var schedCtx *constraint.Context
	var rosterStore *store.RosterStore
	if *useDB {
		db, err := store.Open(&cfg.Database)
		if err != nil {
			logger.WithError(err).Msg("数据库连接失败")
			os.Exit(1)
		}
		defer db.Close()

		rosterStore = store.NewRosterStore(db)
		schedCtx, err = rosterStore.BuildContext(ctx, window)
		if err != nil {
			logger.WithError(err).Msg("加载排班输入失败")
			os.Exit(1)
		}
	} else {
		schedCtx = demoContext(window)
	}
	schedCtx.Config["weekly_hour_ceiling"] = cfg.DutyHour.WeeklyHourCeiling
	schedCtx.Config["max_consecutive_days"] = cfg.DutyHour.MaxConsecutiveDays
	schedCtx.Config["supervision_ratio"] = cfg.DutyHour.SupervisionRatio

	// 注册约束集
	manager := constraint.NewManager()
	if err := builtin.RegisterSet(manager, *setName, schedCtx.Config); err != nil {
		logger.WithError(err).Msg("注册约束集失败")
		os.Exit(1)
	}

	// 求解
	solverCfg := solver.Config{
		Strategy:      solver.Strategy(*strategy),
		TimeBudget:    *budget,
		ExactBackend:  solver.Strategy(cfg.Solver.ExactBackend),
		Workers:       *workers,
		MaxIterations: cfg.Solver.MaxIterations,
		MaxNodes:      cfg.Solver.MaxNodes,
		ConstraintSet: *setName,
	}
	s, err := solver.New(solverCfg, manager, schedCtx)
	if err != nil {
		logger.WithError(err).Msg("创建求解器失败")
		os.Exit(1)
	}

	result, err := s.Solve(ctx, schedCtx)
	if err != nil {
		logger.WithError(err).Msg("求解失败")
		os.Exit(1)
	}

	// 工时合规校验
	complianceCfg := &validator.Config{
		WeeklyHourCeiling:  cfg.DutyHour.WeeklyHourCeiling,
		MaxConsecutiveDays: cfg.DutyHour.MaxConsecutiveDays,
		SupervisionRatio:   cfg.DutyHour.SupervisionRatio,
		JuniorShiftCap:     cfg.DutyHour.JuniorShiftCap,
		SeniorShiftCap:     cfg.DutyHour.SeniorShiftCap,
		ShiftExtension:     cfg.DutyHour.ShiftExtension,
	}
	var external []*model.ExternalShift
	if rosterStore != nil {
		if external, err = rosterStore.ListExternalShifts(ctx, window); err != nil {
			logger.WithError(err).Msg("加载外部工时失败")
			os.Exit(1)
		}
	}
	compliance := validator.NewValidator(complianceCfg).
		Validate(schedCtx.Assignments, schedCtx.People, schedCtx.Absences, external, window)

	// 统计分析
	equity := stats.NewEquityAnalyzer().Analyze(schedCtx.Assignments, schedCtx.People)
	coverage := stats.NewCoverageAnalyzer().
		Analyze(schedCtx.Demands, schedCtx.Slots, schedCtx.Templates, schedCtx.Assignments)

	// 结果写回
	if *save {
		if rosterStore == nil {
			logger.Error().Msg("-save 需要与 -db 同时使用")
			os.Exit(1)
		}
		if !result.Feasible {
			logger.Error().Msg("方案不可行，拒绝写回数据库")
			os.Exit(1)
		}
		if err := rosterStore.ReplaceSolverAssignments(ctx, window, result.Assignments); err != nil {
			logger.WithError(err).Msg("写回排班结果失败")
			os.Exit(1)
		}
		logger.Info().Int("assignments", len(result.Assignments)).Msg("排班结果已写回数据库")
	}

	report := &Report{
		Window:      window,
		Strategy:    result.Diagnostics.Strategy,
		Solve:       result,
		Compliance:  compliance,
		Equity:      equity,
		Coverage:    coverage,
		GeneratedAt: time.Now(),
	}
	if err := writeReport(report, *outPath); err != nil {
		logger.WithError(err).Msg("输出报告失败")
		os.Exit(1)
	}

	if !result.Feasible {
		os.Exit(2)
	}
}

// writeReport 输出 JSON 报告
func writeReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// demoContext 构建内置演示数据集：标准轮转目录 + 一个小型住院医师梯队
func demoContext(window model.DateRange) *constraint.Context {
	people := []*model.Person{
		demoPerson("陈一", "R101", model.RoleResident, 1),
		demoPerson("李二", "R102", model.RoleResident, 1),
		demoPerson("张三", "R201", model.RoleResident, 2),
		demoPerson("刘四", "R202", model.RoleResident, 2),
		demoPerson("王五", "R301", model.RoleResident, 3),
		demoPerson("赵六", "F001", model.RoleFaculty, 0),
		demoPerson("孙七", "F002", model.RoleFaculty, 0),
		demoPerson("周八", "A001", model.RoleAdjunct, 0),
	}

	var slots []*model.Slot
	for _, date := range model.DatesBetween(window) {
		for _, period := range []model.Period{model.PeriodAM, model.PeriodPM, model.PeriodNight} {
			slot := model.NewSlot(date, period)
			slots = append(slots, &slot)
		}
	}

	templates := rotation.NewCatalog().DefaultTemplates()

	schedCtx := constraint.NewContext(window.StartDate, window.EndDate)
	schedCtx.SetPeople(people)
	schedCtx.SetSlots(slots)
	schedCtx.SetTemplates(templates)
	schedCtx.SetDemands(nil)
	return schedCtx
}

// demoPerson 创建演示医师
func demoPerson(name, code string, role model.Role, pgy int) *model.Person {
	return &model.Person{
		BaseModel:          model.NewBaseModel(),
		Name:               name,
		Code:               code,
		Role:               role,
		Status:             "active",
		PGYLevel:           pgy,
		FTE:                1,
		TargetHoursPerWeek: 60,
	}
}
