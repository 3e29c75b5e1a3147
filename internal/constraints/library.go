// Package constraints 提供内置约束的描述目录
package constraints

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	Sets        []string          `json:"sets"` // 包含该约束的命名约束集
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        "primary_slot_uniqueness",
			DisplayName: "时段主分配唯一",
			Type:        "hard",
			Category:    "基础完整性",
			Description: "同一医师在同一时段单元只能有一个主分配，杜绝同时出现在两处的排班。",
			Sets:        []string{"minimal", "default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "template_capacity",
			DisplayName: "轮转容量上限",
			Type:        "hard",
			Category:    "容量限制",
			Description: "限制每个轮转模板在单个时段的同时人数不超过其容量配置。",
			Sets:        []string{"minimal", "default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "space_capacity",
			DisplayName: "物理空间容量",
			Type:        "hard",
			Category:    "容量限制",
			Description: "共享同一物理空间的多个轮转，在单个时段的总人数不超过空间容量。",
			Sets:        []string{"default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "blocking_absence",
			DisplayName: "阻断性缺勤",
			Type:        "hard",
			Category:    "时间限制",
			Description: "医师在休假、病假等阻断性缺勤期间不得排班。",
			Sets:        []string{"minimal", "default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "junior_only_slot",
			DisplayName: "新人门诊专属时段",
			Type:        "hard",
			Category:    "资格要求",
			Description: "新人门诊时段只允许一年级住院医师参加，其他人员不得占用。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "junior_clinic_weekday", Type: "int", Description: "新人门诊星期（0=周日）", Default: "3"},
				{Name: "junior_clinic_period", Type: "string", Description: "新人门诊时段", Default: "AM"},
			},
		},
		{
			Name:        "faculty_supervisor_slot",
			DisplayName: "带教督导时段",
			Type:        "hard",
			Category:    "资格要求",
			Description: "带教查房时段必须由带教医师承担，保证教学督导到位。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "supervisor_weekday", Type: "int", Description: "带教查房星期（0=周日）", Default: "3"},
			},
		},
		{
			Name:        "call_coverage",
			DisplayName: "夜班值班资格",
			Type:        "hard",
			Category:    "资格要求",
			Description: "夜班值班仅由参与值班的医师承担，兼职医师不进入自动分配。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "call_weekdays", Type: "array", Description: "需要值班覆盖的星期（空为每天）"},
			},
		},
		{
			Name:        "inpatient_tier_cap",
			DisplayName: "病房年级配额",
			Type:        "hard",
			Category:    "容量限制",
			Description: "限制住院病房各年级住院医师的同时人数，维持梯队结构。",
			Sets:        []string{"default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "weekly_hour_ceiling",
			DisplayName: "周工时上限",
			Type:        "hard",
			Category:    "工时合规",
			Description: "按 28 天滚动窗口核算周均工时（含外部兼职），不得超过上限。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "weekly_hour_ceiling", Type: "float", Description: "周均工时上限(小时)", Default: "80", Min: "40", Max: "80"},
			},
		},
		{
			Name:        "one_in_seven_rest",
			DisplayName: "七日一休",
			Type:        "hard",
			Category:    "工时合规",
			Description: "限制连续出勤天数，缺勤日保持计数但不累加，完整休息日才重置。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "max_consecutive_days", Type: "int", Description: "最大连续出勤天数", Default: "6", Min: "4", Max: "6"},
			},
		},
		{
			Name:        "supervision_ratio",
			DisplayName: "带教督导比例",
			Type:        "hard",
			Category:    "教学保障",
			Description: "同一轮转同一周内，每名带教医师督导的住院医师人数不超过比例上限。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "supervision_ratio", Type: "int", Description: "每名带教督导人数上限", Default: "4", Min: "1", Max: "8"},
			},
		},

		// =====================================================
		// 软约束
		// =====================================================
		{
			Name:        "coverage_maximization",
			DisplayName: "需求覆盖最大化",
			Type:        "soft",
			Category:    "服务保障",
			Description: "尽量满足各时段各轮转的人数需求，优先填补高优先级缺口；模板声明每周次数范围时同时引导满足周下限与周目标。",
			Sets:        []string{"minimal", "default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "clinic_day_requirement",
			DisplayName: "病房周门诊半天",
			Type:        "soft",
			Category:    "培养要求",
			Description: "病房轮转的高年级住院医师每周尽量保留一个门诊半天，维持门诊连续性。",
			Sets:        []string{"default", "strict"},
			Params:      []ConstraintParam{},
		},
		{
			Name:        "workload_equity",
			DisplayName: "工作量均衡",
			Type:        "soft",
			Category:    "公平性",
			Description: "同层级医师之间的工时分布尽量均匀，按个人周目标工时折算应得份额后比较。",
			Sets:        []string{"default", "strict"},
			Params: []ConstraintParam{
				{Name: "equity_tolerance_hours", Type: "float", Description: "容忍偏差(小时)", Default: "5", Min: "0", Max: "20"},
			},
		},
		{
			Name:        "assignment_continuity",
			DisplayName: "排班连续性",
			Type:        "soft",
			Category:    "服务质量",
			Description: "同一医师尽量在相邻日期延续同一轮转，减少交接频次。",
			Sets:        []string{"default", "strict"},
			Params:      []ConstraintParam{},
		},
	}
}
