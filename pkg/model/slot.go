// Package model 定义排班引擎的核心数据模型
package model

import "time"

// Period 时段
type Period string

const (
	PeriodAM    Period = "AM"    // 上午（5 小时）
	PeriodPM    Period = "PM"    // 下午（5 小时）
	PeriodNight Period = "NIGHT" // 夜班（12 小时）
)

// PeriodOrder 时段的排序序号（AM < PM < NIGHT）
func PeriodOrder(p Period) int {
	switch p {
	case PeriodAM:
		return 0
	case PeriodPM:
		return 1
	case PeriodNight:
		return 2
	default:
		return 3
	}
}

// PeriodHours 时段对应的工时
func PeriodHours(p Period) float64 {
	switch p {
	case PeriodAM, PeriodPM:
		return 5
	case PeriodNight:
		return 12
	default:
		return 0
	}
}

// Slot 排班时段单元（某一天的某个时段）
type Slot struct {
	BaseModel
	Date    string `json:"date" db:"date"` // YYYY-MM-DD
	Period  Period `json:"period" db:"period"`
	Weekend bool   `json:"weekend" db:"weekend"`
	Holiday bool   `json:"holiday" db:"holiday"`
}

// NewSlot 创建时段单元
func NewSlot(date string, period Period) Slot {
	s := Slot{
		BaseModel: NewBaseModel(),
		Date:      date,
		Period:    period,
	}
	if t, err := ParseDate(date); err == nil {
		wd := t.Weekday()
		s.Weekend = wd == time.Saturday || wd == time.Sunday
	}
	return s
}

// Hours 时段工时
func (s *Slot) Hours() float64 {
	return PeriodHours(s.Period)
}

// Weekday 时段所在的星期几
func (s *Slot) Weekday() time.Weekday {
	t, err := ParseDate(s.Date)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// Less 按日期、时段、ID 比较两个时段单元
func (s *Slot) Less(other *Slot) bool {
	if s.Date != other.Date {
		return s.Date < other.Date
	}
	if po, qo := PeriodOrder(s.Period), PeriodOrder(other.Period); po != qo {
		return po < qo
	}
	return s.ID.String() < other.ID.String()
}
