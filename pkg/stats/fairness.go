// Package stats 提供排班统计分析
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

// EquityMetrics 工作量公平性指标
type EquityMetrics struct {
	WorkloadGini     float64 `json:"workload_gini"`     // 工时基尼系数（0=完全公平）
	WorkloadVariance float64 `json:"workload_variance"` // 工时方差
	WorkloadStdDev   float64 `json:"workload_std_dev"`  // 工时标准差
	AvgHours         float64 `json:"avg_hours"`         // 人均工时
	MaxHours         float64 `json:"max_hours"`
	MinHours         float64 `json:"min_hours"`
	HoursRange       float64 `json:"hours_range"`

	NightGini   float64 `json:"night_gini"`   // 夜班分配基尼系数
	WeekendGini float64 `json:"weekend_gini"` // 周末班分配基尼系数

	// 分层均值（住院医师按年级，其余按角色）
	TierAverages map[string]float64 `json:"tier_averages"`

	PersonStats []PersonStat `json:"person_stats"`

	// 综合公平性评分（0-100）
	Score float64 `json:"score"`
}

// PersonStat 单人工作量统计
type PersonStat struct {
	PersonID        uuid.UUID `json:"person_id"`
	Name            string    `json:"name"`
	Tier            string    `json:"tier"`
	TotalHours      float64   `json:"total_hours"`
	NormalizedHours float64   `json:"normalized_hours"` // 按 FTE 折算
	AssignmentCount int       `json:"assignment_count"`
	NightCount      int       `json:"night_count"`
	WeekendCount    int       `json:"weekend_count"`
	DeviationPct    float64   `json:"deviation_pct"` // 相对所在层均值的偏差
}

// EquityAnalyzer 公平性分析器
type EquityAnalyzer struct{}

// NewEquityAnalyzer 创建公平性分析器
func NewEquityAnalyzer() *EquityAnalyzer {
	return &EquityAnalyzer{}
}

// Analyze 统计排班的工作量公平性
func (e *EquityAnalyzer) Analyze(assignments []*model.Assignment, people []*model.Person) *EquityMetrics {
	if len(assignments) == 0 || len(people) == 0 {
		return &EquityMetrics{TierAverages: make(map[string]float64), Score: 100}
	}

	statMap := make(map[uuid.UUID]*PersonStat)
	for _, p := range people {
		statMap[p.ID] = &PersonStat{PersonID: p.ID, Name: p.Name, Tier: p.Tier()}
	}

	for _, a := range assignments {
		stat := statMap[a.PersonID]
		if stat == nil {
			continue
		}
		stat.TotalHours += a.Hours
		stat.AssignmentCount++
		if a.Period == model.PeriodNight {
			stat.NightCount++
		}
		if isWeekend(a.Date) {
			stat.WeekendCount++
		}
	}

	// FTE 折算与分层均值
	tierTotals := make(map[string]float64)
	tierCounts := make(map[string]int)
	for _, p := range people {
		stat := statMap[p.ID]
		fte := p.FTE
		if fte <= 0 {
			fte = 1
		}
		stat.NormalizedHours = stat.TotalHours / fte
		tierTotals[stat.Tier] += stat.NormalizedHours
		tierCounts[stat.Tier]++
	}
	tierAverages := make(map[string]float64, len(tierTotals))
	for tier, total := range tierTotals {
		tierAverages[tier] = total / float64(tierCounts[tier])
	}

	stats := make([]PersonStat, 0, len(statMap))
	hours := make([]float64, 0, len(statMap))
	nights := make([]float64, 0, len(statMap))
	weekends := make([]float64, 0, len(statMap))
	for _, p := range people {
		stat := statMap[p.ID]
		if avg := tierAverages[stat.Tier]; avg > 0 {
			stat.DeviationPct = (stat.NormalizedHours - avg) / avg * 100
		}
		stats = append(stats, *stat)
		hours = append(hours, stat.NormalizedHours)
		nights = append(nights, float64(stat.NightCount))
		weekends = append(weekends, float64(stat.WeekendCount))
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalHours != stats[j].TotalHours {
			return stats[i].TotalHours > stats[j].TotalHours
		}
		return stats[i].PersonID.String() < stats[j].PersonID.String()
	})

	avg := mean(hours)
	variance := varianceOf(hours, avg)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := rangeOf(hours)

	metrics := &EquityMetrics{
		WorkloadGini:     Gini(hours),
		WorkloadVariance: variance,
		WorkloadStdDev:   stdDev,
		AvgHours:         avg,
		MaxHours:         maxHours,
		MinHours:         minHours,
		HoursRange:       maxHours - minHours,
		NightGini:        Gini(nights),
		WeekendGini:      Gini(weekends),
		TierAverages:     tierAverages,
		PersonStats:      stats,
	}
	metrics.Score = equityScore(metrics.WorkloadGini, metrics.NightGini, metrics.WeekendGini, stdDev, avg)
	return metrics
}

// Gini 计算基尼系数（0=完全公平，1=完全不公平）
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	var gini float64
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini /= float64(n) * sum
	return math.Max(0, math.Min(1, gini))
}

// equityScore 综合公平性评分
func equityScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		spreadWeight   = 0.1
	)

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*(1-workloadGini)*100 +
		nightWeight*(1-nightGini)*100 +
		weekendWeight*(1-weekendGini)*100 +
		spreadWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// mean 平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// varianceOf 方差
func varianceOf(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// rangeOf 极值
func rangeOf(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// isWeekend 判断日期是否为周末
func isWeekend(date string) bool {
	t, err := model.ParseDate(date)
	if err != nil {
		return false
	}
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
