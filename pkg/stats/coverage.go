// Package stats 提供排班统计分析
package stats

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalDemands  int     `json:"total_demands"`
	FilledDemands int     `json:"filled_demands"`
	FillRate      float64 `json:"fill_rate"` // 百分比

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按轮转活动类型统计
	ActivityCoverage map[model.Activity]float64 `json:"activity_coverage"`

	// 未满足的需求
	Unfilled []UnfilledDemand `json:"unfilled,omitempty"`

	// 低于下限的必须需求
	Understaffed []UnfilledDemand `json:"understaffed,omitempty"`
}

// DayCoverage 单日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Demands      int     `json:"demands"`
	Filled       int     `json:"filled"`
	FillRate     float64 `json:"fill_rate"`
	PeopleOnDuty int     `json:"people_on_duty"`
	TotalHours   float64 `json:"total_hours"`
}

// UnfilledDemand 未满足的需求
type UnfilledDemand struct {
	SlotID     uuid.UUID    `json:"slot_id"`
	TemplateID uuid.UUID    `json:"template_id"`
	Date       string       `json:"date"`
	Period     model.Period `json:"period"`
	Target     int          `json:"target"`
	Assigned   int          `json:"assigned"`
	Missing    int          `json:"missing"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 统计需求覆盖情况
func (c *CoverageAnalyzer) Analyze(
	demands []*model.SlotDemand,
	slots []*model.Slot,
	templates []*model.RotationTemplate,
	assignments []*model.Assignment,
) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:    make(map[string]DayCoverage),
		ActivityCoverage: make(map[model.Activity]float64),
	}
	if len(demands) == 0 {
		metrics.FillRate = 100
		return metrics
	}

	slotMap := make(map[uuid.UUID]*model.Slot, len(slots))
	for _, s := range slots {
		slotMap[s.ID] = s
	}
	templateMap := make(map[uuid.UUID]*model.RotationTemplate, len(templates))
	for _, t := range templates {
		templateMap[t.ID] = t
	}

	type demandKey struct {
		slotID     uuid.UUID
		templateID uuid.UUID
	}
	assignedCount := make(map[demandKey]int)
	peopleByDate := make(map[string]map[uuid.UUID]bool)
	hoursByDate := make(map[string]float64)
	for _, a := range assignments {
		if !a.Primary {
			continue
		}
		assignedCount[demandKey{a.SlotID, a.TemplateID}]++
		if peopleByDate[a.Date] == nil {
			peopleByDate[a.Date] = make(map[uuid.UUID]bool)
		}
		peopleByDate[a.Date][a.PersonID] = true
		hoursByDate[a.Date] += a.Hours
	}

	dailyStats := make(map[string]*DayCoverage)
	activityTotals := make(map[model.Activity]int)
	activityFilled := make(map[model.Activity]int)

	for _, d := range demands {
		slot := slotMap[d.SlotID]
		if slot == nil {
			continue
		}
		assigned := assignedCount[demandKey{d.SlotID, d.TemplateID}]

		target := d.TargetCount
		if target == 0 {
			target = d.MinCount
		}
		filled := (d.MinCount > 0 && assigned >= d.MinCount) || (d.MinCount == 0 && assigned > 0)

		metrics.TotalDemands++
		if filled {
			metrics.FilledDemands++
		} else {
			metrics.Unfilled = append(metrics.Unfilled, UnfilledDemand{
				SlotID:     d.SlotID,
				TemplateID: d.TemplateID,
				Date:       slot.Date,
				Period:     slot.Period,
				Target:     target,
				Assigned:   assigned,
				Missing:    target - assigned,
			})
		}
		if d.Required && assigned < d.MinCount {
			metrics.Understaffed = append(metrics.Understaffed, UnfilledDemand{
				SlotID:     d.SlotID,
				TemplateID: d.TemplateID,
				Date:       slot.Date,
				Period:     slot.Period,
				Target:     d.MinCount,
				Assigned:   assigned,
				Missing:    d.MinCount - assigned,
			})
		}

		day := dailyStats[slot.Date]
		if day == nil {
			day = &DayCoverage{Date: slot.Date}
			dailyStats[slot.Date] = day
		}
		day.Demands++
		if filled {
			day.Filled++
		}

		if tpl := templateMap[d.TemplateID]; tpl != nil {
			activityTotals[tpl.Activity]++
			if filled {
				activityFilled[tpl.Activity]++
			}
		}
	}

	if metrics.TotalDemands > 0 {
		metrics.FillRate = float64(metrics.FilledDemands) / float64(metrics.TotalDemands) * 100
	}
	for date, day := range dailyStats {
		if day.Demands > 0 {
			day.FillRate = float64(day.Filled) / float64(day.Demands) * 100
		}
		day.PeopleOnDuty = len(peopleByDate[date])
		day.TotalHours = hoursByDate[date]
		metrics.DailyCoverage[date] = *day
	}
	for activity, total := range activityTotals {
		if total > 0 {
			metrics.ActivityCoverage[activity] = float64(activityFilled[activity]) / float64(total) * 100
		}
	}

	sortUnfilled(metrics.Unfilled)
	sortUnfilled(metrics.Understaffed)
	return metrics
}

// sortUnfilled 按日期、时段、时段单元排序（确定性输出）
func sortUnfilled(items []UnfilledDemand) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if po, qo := model.PeriodOrder(a.Period), model.PeriodOrder(b.Period); po != qo {
			return po < qo
		}
		if a.SlotID != b.SlotID {
			return a.SlotID.String() < b.SlotID.String()
		}
		return a.TemplateID.String() < b.TemplateID.String()
	})
}
