package model

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-03-01", "2026-03-01"}, // 周日
		{"2026-03-04", "2026-03-01"}, // 周三
		{"2026-03-07", "2026-03-01"}, // 周六
		{"2026-03-08", "2026-03-08"}, // 下一周
	}
	for _, tt := range tests {
		if got := WeekStart(tt.date); got != tt.want {
			t.Errorf("WeekStart(%s) = %s, 期望 %s", tt.date, got, tt.want)
		}
	}
}

func TestWeekdayInstanceOfMonth(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2026-08-06", 1},
		{"2026-08-13", 2},
		{"2026-08-27", 4},
		{"2026-08-31", 5},
	}
	for _, tt := range tests {
		if got := WeekdayInstanceOfMonth(tt.date); got != tt.want {
			t.Errorf("WeekdayInstanceOfMonth(%s) = %d, 期望 %d", tt.date, got, tt.want)
		}
	}
}

func TestDateRange(t *testing.T) {
	dr := DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	if !dr.Covers("2026-03-02") || !dr.Covers("2026-03-08") {
		t.Error("范围两端应被覆盖")
	}
	if dr.Covers("2026-03-09") {
		t.Error("范围外日期不应被覆盖")
	}
	if got := dr.Days(); got != 7 {
		t.Errorf("Days() = %d, 期望 7", got)
	}
	if got := len(DatesBetween(dr)); got != 7 {
		t.Errorf("DatesBetween 返回 %d 天, 期望 7", got)
	}
}

func TestSlotHours(t *testing.T) {
	tests := []struct {
		period Period
		want   float64
	}{
		{PeriodAM, 5},
		{PeriodPM, 5},
		{PeriodNight, 12},
	}
	for _, tt := range tests {
		slot := NewSlot("2026-03-02", tt.period)
		if got := slot.Hours(); got != tt.want {
			t.Errorf("%s 时段工时 = %v, 期望 %v", tt.period, got, tt.want)
		}
	}
}

func TestSlotWeekend(t *testing.T) {
	if s := NewSlot("2026-03-07", PeriodAM); !s.Weekend {
		t.Error("周六应标记为周末")
	}
	if s := NewSlot("2026-03-04", PeriodAM); s.Weekend {
		t.Error("周三不应标记为周末")
	}
}

func TestSlotLess(t *testing.T) {
	am := NewSlot("2026-03-02", PeriodAM)
	pm := NewSlot("2026-03-02", PeriodPM)
	night := NewSlot("2026-03-02", PeriodNight)
	next := NewSlot("2026-03-03", PeriodAM)

	if !am.Less(&pm) || !pm.Less(&night) {
		t.Error("同日时段应按 AM < PM < NIGHT 排序")
	}
	if !night.Less(&next) {
		t.Error("日期在前的时段应排在前面")
	}
}

func TestTemplateAppliesTo(t *testing.T) {
	tpl := &RotationTemplate{
		BaseModel: NewBaseModel(),
		Name:      "夜班值班",
		Activity:  ActivityCall,
		Weekdays:  []time.Weekday{time.Friday},
		Periods:   []Period{PeriodNight},
	}

	friNight := NewSlot("2026-03-06", PeriodNight) // 周五
	friAM := NewSlot("2026-03-06", PeriodAM)
	monNight := NewSlot("2026-03-02", PeriodNight) // 周一

	if !tpl.AppliesTo(&friNight) {
		t.Error("周五夜班应适用")
	}
	if tpl.AppliesTo(&friAM) {
		t.Error("周五上午不应适用")
	}
	if tpl.AppliesTo(&monNight) {
		t.Error("周一夜班不应适用")
	}
}

func TestTemplateEligible(t *testing.T) {
	tpl := &RotationTemplate{
		BaseModel:     NewBaseModel(),
		Name:          "ICU 轮转",
		Activity:      ActivityInpatient,
		EligibleRoles: []Role{RoleResident},
		MinPGY:        2,
	}

	junior := &Person{BaseModel: NewBaseModel(), Role: RoleResident, PGYLevel: 1, Status: "active"}
	senior := &Person{BaseModel: NewBaseModel(), Role: RoleResident, PGYLevel: 3, Status: "active"}
	faculty := &Person{BaseModel: NewBaseModel(), Role: RoleFaculty, Status: "active"}

	if tpl.Eligible(junior) {
		t.Error("PGY-1 不满足最低年级要求")
	}
	if !tpl.Eligible(senior) {
		t.Error("PGY-3 应满足资格要求")
	}
	if tpl.Eligible(faculty) {
		t.Error("带教医师不在资格角色内")
	}
}

func TestPersonHelpers(t *testing.T) {
	junior := &Person{BaseModel: NewBaseModel(), Role: RoleResident, PGYLevel: 1, Status: "active"}
	adjunct := &Person{BaseModel: NewBaseModel(), Role: RoleAdjunct, Status: "active"}

	if !junior.IsJunior() || !junior.TakesCall() {
		t.Error("PGY-1 住院医师应为低年级且参与值班")
	}
	if adjunct.TakesCall() {
		t.Error("兼职医师不参与自动值班分配")
	}
	if got := junior.Tier(); got != "pgy-1" {
		t.Errorf("Tier() = %s, 期望 pgy-1", got)
	}
	if got := adjunct.Tier(); got != "adjunct" {
		t.Errorf("Tier() = %s, 期望 adjunct", got)
	}
}

func TestAbsenceCovers(t *testing.T) {
	a := &Absence{
		BaseModel: NewBaseModel(),
		Type:      AbsenceVacation,
		StartDate: "2026-03-02",
		EndDate:   "2026-03-04",
		Blocking:  true,
	}
	if !a.Covers("2026-03-02") || !a.Covers("2026-03-04") {
		t.Error("缺勤两端日期应被覆盖")
	}
	if a.Covers("2026-03-05") {
		t.Error("缺勤结束后的日期不应被覆盖")
	}
}

func TestBuildDemands(t *testing.T) {
	clinic := &RotationTemplate{
		BaseModel:  NewBaseModel(),
		Name:       "普通门诊",
		Activity:   ActivityClinic,
		MinPerSlot: 2,
		Periods:    []Period{PeriodAM, PeriodPM},
	}
	call := &RotationTemplate{
		BaseModel:  NewBaseModel(),
		Name:       "夜班值班",
		Activity:   ActivityCall,
		MinPerSlot: 1,
		Periods:    []Period{PeriodNight},
	}

	am := NewSlot("2026-03-02", PeriodAM)
	night := NewSlot("2026-03-02", PeriodNight)
	demands := BuildDemands([]*Slot{&am, &night}, []*RotationTemplate{clinic, call})

	if len(demands) != 2 {
		t.Fatalf("期望 2 条需求, 实际 %d", len(demands))
	}
	for _, d := range demands {
		if !d.Required {
			t.Error("MinPerSlot > 0 的需求应为必须满足")
		}
	}
	if demands[0].MinCount != 2 || demands[0].TemplateID != clinic.ID {
		t.Error("门诊需求下限应为 2")
	}
	if demands[1].SlotID != night.ID || demands[1].TemplateID != call.ID {
		t.Error("夜班需求应绑定夜班时段")
	}
}
