// Package model 定义排班引擎的核心数据模型
package model

import "github.com/google/uuid"

// AbsenceType 缺勤类型
type AbsenceType string

const (
	AbsenceVacation   AbsenceType = "vacation"   // 休假
	AbsenceSick       AbsenceType = "sick"       // 病假
	AbsenceConference AbsenceType = "conference" // 学术会议
	AbsenceOther      AbsenceType = "other"      // 其他
)

// Absence 缺勤记录
type Absence struct {
	BaseModel
	PersonID  uuid.UUID   `json:"person_id" db:"person_id"`
	Type      AbsenceType `json:"type" db:"type"`
	StartDate string      `json:"start_date" db:"start_date"` // YYYY-MM-DD
	EndDate   string      `json:"end_date" db:"end_date"`     // YYYY-MM-DD
	Blocking  bool        `json:"blocking" db:"blocking"`     // 阻断排班（false 仅作记录）
	Reason    string      `json:"reason,omitempty" db:"reason"`
}

// Covers 检查缺勤是否覆盖某一天
func (a *Absence) Covers(date string) bool {
	return date >= a.StartDate && date <= a.EndDate
}
