package stats

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
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

// duty 构造一条排班记录
func duty(p *model.Person, date string, period model.Period) *model.Assignment {
	slot := model.NewSlot(date, period)
	return model.NewAssignment(p.ID, &slot, uuid.New())
}

func TestGini(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"空列表", nil, 0},
		{"完全均等", []float64{10, 10, 10, 10}, 0},
		{"全部为零", []float64{0, 0, 0}, 0},
		{"一人独占", []float64{0, 0, 0, 100}, 0.75},
	}
	for _, tc := range cases {
		if got := Gini(tc.values); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: Gini = %.4f, 期望 %.4f", tc.name, got, tc.want)
		}
	}
}

func TestEquityAnalyzeBalanced(t *testing.T) {
	r1 := newResident("R1", 2)
	r2 := newResident("R2", 2)

	assignments := []*model.Assignment{
		duty(r1, "2026-03-02", model.PeriodAM),
		duty(r2, "2026-03-03", model.PeriodAM),
	}

	metrics := NewEquityAnalyzer().Analyze(assignments, []*model.Person{r1, r2})
	if metrics.WorkloadGini != 0 {
		t.Errorf("等量分配的基尼系数 = %.4f, 期望 0", metrics.WorkloadGini)
	}
	if metrics.AvgHours != 5 {
		t.Errorf("人均工时 = %.1f, 期望 5", metrics.AvgHours)
	}
	if metrics.HoursRange != 0 {
		t.Errorf("工时极差 = %.1f, 期望 0", metrics.HoursRange)
	}
	if metrics.Score != 100 {
		t.Errorf("完全均衡的评分 = %.1f, 期望 100", metrics.Score)
	}
}

func TestEquityAnalyzeSkewed(t *testing.T) {
	r1 := newResident("R1", 2)
	r2 := newResident("R2", 2)

	assignments := []*model.Assignment{
		duty(r1, "2026-03-02", model.PeriodAM),
		duty(r1, "2026-03-02", model.PeriodPM),
		duty(r1, "2026-03-06", model.PeriodNight),
		duty(r1, "2026-03-07", model.PeriodNight), // 周六
	}

	metrics := NewEquityAnalyzer().Analyze(assignments, []*model.Person{r1, r2})
	if metrics.WorkloadGini <= 0 {
		t.Error("倾斜分配的基尼系数应大于 0")
	}
	if metrics.NightGini != 0.5 {
		t.Errorf("夜班基尼系数 = %.4f, 期望 0.5（两人中一人独占）", metrics.NightGini)
	}
	if metrics.Score >= 100 {
		t.Error("倾斜分配的评分应低于 100")
	}

	// 排序后首位是工时最多者
	if metrics.PersonStats[0].PersonID != r1.ID {
		t.Error("统计列表应按总工时降序")
	}
	if metrics.PersonStats[0].WeekendCount != 1 {
		t.Errorf("周末班次数 = %d, 期望 1", metrics.PersonStats[0].WeekendCount)
	}
	if metrics.PersonStats[0].NightCount != 2 {
		t.Errorf("夜班次数 = %d, 期望 2", metrics.PersonStats[0].NightCount)
	}
}

func TestEquityFTENormalization(t *testing.T) {
	full := newResident("R1", 2)
	half := newResident("R2", 2)
	half.FTE = 0.5

	// 全职 10 小时、半职 5 小时，折算后等量
	assignments := []*model.Assignment{
		duty(full, "2026-03-02", model.PeriodAM),
		duty(full, "2026-03-02", model.PeriodPM),
		duty(half, "2026-03-03", model.PeriodAM),
	}

	metrics := NewEquityAnalyzer().Analyze(assignments, []*model.Person{full, half})
	if metrics.WorkloadGini != 0 {
		t.Errorf("FTE 折算后的基尼系数 = %.4f, 期望 0", metrics.WorkloadGini)
	}
	for _, stat := range metrics.PersonStats {
		if stat.NormalizedHours != 10 {
			t.Errorf("%s 折算工时 = %.1f, 期望 10", stat.Name, stat.NormalizedHours)
		}
	}
}

func TestEquityTierAverages(t *testing.T) {
	junior := newResident("R1", 1)
	senior := newResident("R2", 3)

	assignments := []*model.Assignment{
		duty(junior, "2026-03-02", model.PeriodAM),
		duty(senior, "2026-03-02", model.PeriodNight),
	}

	metrics := NewEquityAnalyzer().Analyze(assignments, []*model.Person{junior, senior})
	if got := metrics.TierAverages["pgy-1"]; got != 5 {
		t.Errorf("pgy-1 层均值 = %.1f, 期望 5", got)
	}
	if got := metrics.TierAverages["pgy-3"]; got != 12 {
		t.Errorf("pgy-3 层均值 = %.1f, 期望 12", got)
	}
}

func TestEquityEmptyInput(t *testing.T) {
	metrics := NewEquityAnalyzer().Analyze(nil, nil)
	if metrics.Score != 100 {
		t.Errorf("空输入评分 = %.1f, 期望 100", metrics.Score)
	}
	if metrics.WorkloadGini != 0 {
		t.Error("空输入的基尼系数应为 0")
	}
}
