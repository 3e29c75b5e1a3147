// Package builtin 提供内置约束实现
package builtin

import (
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// 命名约束集
const (
	SetDefault = "default"
	SetMinimal = "minimal"
	SetStrict  = "strict"
)

// RegisterSet 按名称注册约束集
func RegisterSet(manager *constraint.Manager, name string, config map[string]interface{}) error {
	switch name {
	case SetDefault, "":
		RegisterDefaultConstraints(manager, config)
	case SetMinimal:
		RegisterMinimalConstraints(manager, config)
	case SetStrict:
		RegisterStrictConstraints(manager, config)
	default:
		return errors.UnknownConstraintSet(name)
	}
	return nil
}

// RegisterMinimalConstraints 注册最小约束集
// 仅保留排班成立所必需的硬约束与覆盖引导
func RegisterMinimalConstraints(manager *constraint.Manager, config map[string]interface{}) {
	manager.Register(NewPrimarySlotUniquenessConstraint())
	manager.Register(NewTemplateCapacityConstraint())
	manager.Register(NewBlockingAbsenceConstraint())
	manager.Register(NewCoverageMaximizationConstraint())
}

// RegisterDefaultConstraints 注册默认约束集
func RegisterDefaultConstraints(manager *constraint.Manager, config map[string]interface{}) {
	// 从配置中获取参数，使用默认值
	ceiling := getConfigFloat(config, "weekly_hour_ceiling", 80)
	maxConsecutive := getConfigInt(config, "max_consecutive_days", 6)
	ratio := getConfigInt(config, "supervision_ratio", 4)
	equityTolerance := getConfigFloat(config, "equity_tolerance_hours", 5)
	juniorWeekday := time.Weekday(getConfigInt(config, "junior_clinic_weekday", int(time.Wednesday)))
	juniorPeriod := model.Period(getConfigString(config, "junior_clinic_period", string(model.PeriodAM)))
	supervisorWeekday := time.Weekday(getConfigInt(config, "supervisor_weekday", int(time.Wednesday)))
	callWeekdays := getConfigWeekdays(config, "call_weekdays", nil)

	// 注册硬约束
	manager.Register(NewPrimarySlotUniquenessConstraint())
	manager.Register(NewTemplateCapacityConstraint())
	manager.Register(NewSpaceCapacityConstraint())
	manager.Register(NewBlockingAbsenceConstraint())
	manager.Register(NewJuniorOnlySlotConstraint(juniorWeekday, juniorPeriod))
	manager.Register(NewFacultySupervisorSlotConstraint(supervisorWeekday, nil))
	manager.Register(NewCallCoverageConstraint(callWeekdays))
	manager.Register(NewInpatientTierCapConstraint())
	manager.Register(NewWeeklyHourCeilingConstraint(ceiling))
	manager.Register(NewOneInSevenRestConstraint(maxConsecutive))
	manager.Register(NewSupervisionRatioConstraint(ratio))

	// 注册软约束
	manager.Register(NewCoverageMaximizationConstraint())
	manager.Register(NewClinicDayRequirementConstraint())
	manager.Register(NewWorkloadEquityConstraint(equityTolerance))
	manager.Register(NewAssignmentContinuityConstraint())
}

// RegisterStrictConstraints 注册严格约束集
// 在默认集基础上收紧工时与带教参数
func RegisterStrictConstraints(manager *constraint.Manager, config map[string]interface{}) {
	RegisterDefaultConstraints(manager, config)

	ceiling := getConfigFloat(config, "strict_weekly_hour_ceiling", 72)
	maxConsecutive := getConfigInt(config, "strict_max_consecutive_days", 5)
	ratio := getConfigInt(config, "strict_supervision_ratio", 3)

	manager.Register(NewWeeklyHourCeilingConstraint(ceiling))
	manager.Register(NewOneInSevenRestConstraint(maxConsecutive))
	manager.Register(NewSupervisionRatioConstraint(ratio))
}

// getConfigInt 从配置中获取整数
func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case int64:
			return int(v)
		}
	}
	return defaultVal
}

// getConfigFloat 从配置中获取浮点数
func getConfigFloat(config map[string]interface{}, key string, defaultVal float64) float64 {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultVal
}

// getConfigString 从配置中获取字符串
func getConfigString(config map[string]interface{}, key string, defaultVal string) string {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key].(string); ok {
		return val
	}
	return defaultVal
}

// getConfigWeekdays 从配置中获取星期列表
func getConfigWeekdays(config map[string]interface{}, key string, defaultVal []time.Weekday) []time.Weekday {
	if config == nil {
		return defaultVal
	}
	switch v := config[key].(type) {
	case []time.Weekday:
		return v
	case []int:
		result := make([]time.Weekday, 0, len(v))
		for _, n := range v {
			result = append(result, time.Weekday(n))
		}
		return result
	}
	return defaultVal
}
