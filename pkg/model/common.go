// Package model 定义排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ConstraintCategory 约束类别
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintCategory = "soft" // 软约束（尽量满足）
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateRange 日期范围（含两端）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Covers 检查日期是否落在范围内
func (dr DateRange) Covers(date string) bool {
	return date >= dr.StartDate && date <= dr.EndDate
}

// Days 返回范围内的天数
func (dr DateRange) Days() int {
	start, err1 := ParseDate(dr.StartDate)
	end, err2 := ParseDate(dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ParseDate 解析 YYYY-MM-DD 格式日期
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays 日期加减（按天）
func AddDays(date string, days int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, days))
}

// WeekStart 返回日期所在周的起始日（周日为每周第一天）
func WeekStart(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, -int(t.Weekday())))
}

// WeekdayInstanceOfMonth 返回日期是当月第几个该星期几（从 1 开始）
// 例如 2026-08-27 是八月的第 4 个周四，返回 4
func WeekdayInstanceOfMonth(date string) int {
	t, err := ParseDate(date)
	if err != nil {
		return 0
	}
	return (t.Day()-1)/7 + 1
}

// DatesBetween 返回范围内的全部日期（升序）
func DatesBetween(dr DateRange) []string {
	start, err1 := ParseDate(dr.StartDate)
	end, err2 := ParseDate(dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates
}
