// Package model 定义排班引擎的核心数据模型
package model

import "strconv"

// Role 人员角色
type Role string

const (
	RoleResident Role = "resident" // 住院医师
	RoleFaculty  Role = "faculty"  // 带教医师
	RoleAdjunct  Role = "adjunct"  // 兼职医师（不参与夜班值班自动分配）
)

// Person 医师
type Person struct {
	BaseModel
	Name   string `json:"name" db:"name"`
	Code   string `json:"code" db:"code"`
	Role   Role   `json:"role" db:"role"`
	Status string `json:"status" db:"status"` // active/inactive/leave

	// 住院医师年级（PGY-1 起），非住院医师为 0
	PGYLevel int `json:"pgy_level,omitempty" db:"pgy_level"`

	// 工作量参数
	FTE                float64 `json:"fte" db:"fte"`                    // 全职当量（0~1]
	TargetHoursPerWeek float64 `json:"target_hours_per_week" db:"target_hours_per_week"`
}

// IsActive 检查医师是否在岗
func (p *Person) IsActive() bool {
	return p.Status == "active"
}

// IsResident 检查是否为住院医师
func (p *Person) IsResident() bool {
	return p.Role == RoleResident
}

// IsFaculty 检查是否为带教医师
func (p *Person) IsFaculty() bool {
	return p.Role == RoleFaculty
}

// IsJunior 检查是否为第一年住院医师
func (p *Person) IsJunior() bool {
	return p.Role == RoleResident && p.PGYLevel == 1
}

// TakesCall 检查是否参与自动生成的夜班值班
// 兼职医师只能手工排入值班，求解器不主动分配
func (p *Person) TakesCall() bool {
	return p.Role != RoleAdjunct
}

// Tier 返回工作量公平性比较所用的分层标识
// 住院医师按年级分层，其余按角色分层
func (p *Person) Tier() string {
	if p.Role == RoleResident {
		return "pgy-" + strconv.Itoa(p.PGYLevel)
	}
	return string(p.Role)
}
