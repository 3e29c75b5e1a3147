// Package model 定义排班引擎的核心数据模型
package model

import "time"

// Activity 轮转活动类型
type Activity string

const (
	ActivityClinic    Activity = "clinic"    // 门诊
	ActivityInpatient Activity = "inpatient" // 住院病房
	ActivityCall      Activity = "call"      // 夜班值班
	ActivityDidactic  Activity = "didactic"  // 教学
	ActivityElective  Activity = "elective"  // 选修轮转
)

// RotationTemplate 轮转模板（描述一类可分配的活动及其容量与资格要求）
type RotationTemplate struct {
	BaseModel
	Name     string   `json:"name" db:"name"`
	Code     string   `json:"code" db:"code"`
	Activity Activity `json:"activity" db:"activity"`

	// 容量
	MaxConcurrent int    `json:"max_concurrent" db:"max_concurrent"` // 单时段最大同时人数（0 表示不限）
	MinPerSlot    int    `json:"min_per_slot" db:"min_per_slot"`     // 单时段需求下限
	SpaceCapacity int    `json:"space_capacity,omitempty" db:"space_capacity"` // 物理空间容量（跨模板共享）
	LocationCode  string `json:"location_code,omitempty" db:"location_code"`   // 物理空间标识

	// 每周范围
	MinPerWeek    int `json:"min_per_week,omitempty" db:"min_per_week"`
	MaxPerWeek    int `json:"max_per_week,omitempty" db:"max_per_week"`
	TargetPerWeek int `json:"target_per_week,omitempty" db:"target_per_week"`

	// 资格要求
	EligibleRoles []Role `json:"eligible_roles,omitempty" db:"eligible_roles"`
	MinPGY        int    `json:"min_pgy,omitempty" db:"min_pgy"`
	MaxPGY        int    `json:"max_pgy,omitempty" db:"max_pgy"`

	// 各年级在该轮转上的同时人数上限（key: PGY 年级）
	TierCaps map[int]int `json:"tier_caps,omitempty" db:"tier_caps"`

	// 高年级住院医师在该轮转期间每周需保留一个门诊半天
	RequiresClinicDay bool `json:"requires_clinic_day,omitempty" db:"requires_clinic_day"`

	// 适用的星期与时段（为空表示全部适用）
	Weekdays []time.Weekday `json:"weekdays,omitempty" db:"weekdays"`
	Periods  []Period       `json:"periods,omitempty" db:"periods"`
}

// AppliesTo 检查模板是否适用于某个时段单元
func (t *RotationTemplate) AppliesTo(slot *Slot) bool {
	if len(t.Weekdays) > 0 {
		found := false
		for _, wd := range t.Weekdays {
			if wd == slot.Weekday() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(t.Periods) > 0 {
		found := false
		for _, p := range t.Periods {
			if p == slot.Period {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Eligible 检查医师是否满足模板的资格要求
func (t *RotationTemplate) Eligible(p *Person) bool {
	if len(t.EligibleRoles) > 0 {
		found := false
		for _, r := range t.EligibleRoles {
			if r == p.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.IsResident() {
		if t.MinPGY > 0 && p.PGYLevel < t.MinPGY {
			return false
		}
		if t.MaxPGY > 0 && p.PGYLevel > t.MaxPGY {
			return false
		}
	}
	return true
}

// TierCap 返回某年级的同时人数上限（0 表示不限）
func (t *RotationTemplate) TierCap(pgy int) int {
	if t.TierCaps == nil {
		return 0
	}
	return t.TierCaps[pgy]
}
