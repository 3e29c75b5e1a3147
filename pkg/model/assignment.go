// Package model 定义排班引擎的核心数据模型
package model

import (
	"sort"

	"github.com/google/uuid"
)

// AssignmentSource 分配来源
type AssignmentSource string

const (
	SourceManual AssignmentSource = "manual" // 手工录入
	SourceSolver AssignmentSource = "solver" // 求解器生成
	SourceImport AssignmentSource = "import" // 外部导入
	SourceSwap   AssignmentSource = "swap"   // 换班产生
)

// Assignment 排班分配（某医师在某时段单元承担某轮转）
// Date/Period/Hours 从时段单元冗余而来，便于合规校验独立使用
type Assignment struct {
	BaseModel
	PersonID   uuid.UUID        `json:"person_id" db:"person_id"`
	SlotID     uuid.UUID        `json:"slot_id" db:"slot_id"`
	TemplateID uuid.UUID        `json:"template_id" db:"template_id"`
	Date       string           `json:"date" db:"date"` // YYYY-MM-DD
	Period     Period           `json:"period" db:"period"`
	Hours      float64          `json:"hours" db:"hours"`
	Primary    bool             `json:"primary" db:"is_primary"` // 该医师在该时段的主分配
	Source     AssignmentSource `json:"source" db:"source"`
	Locked     bool             `json:"locked" db:"locked"` // 锁定后求解器不得改动
}

// NewAssignment 创建求解器生成的分配
func NewAssignment(personID uuid.UUID, slot *Slot, templateID uuid.UUID) *Assignment {
	return &Assignment{
		BaseModel:  NewBaseModel(),
		PersonID:   personID,
		SlotID:     slot.ID,
		TemplateID: templateID,
		Date:       slot.Date,
		Period:     slot.Period,
		Hours:      slot.Hours(),
		Primary:    true,
		Source:     SourceSolver,
	}
}

// SlotDemand 时段需求（某时段单元上某模板需要的人数范围）
type SlotDemand struct {
	BaseModel
	SlotID      uuid.UUID `json:"slot_id" db:"slot_id"`
	TemplateID  uuid.UUID `json:"template_id" db:"template_id"`
	MinCount    int       `json:"min_count" db:"min_count"`
	MaxCount    int       `json:"max_count" db:"max_count"`
	TargetCount int       `json:"target_count" db:"target_count"`
	Priority    int       `json:"priority" db:"priority"` // 越大越优先
	Required    bool      `json:"required" db:"required"` // 必须满足下限（否则视为不可行）
}

// BuildDemands 由时段单元与轮转模板推导默认需求
// 仅对模板适用的时段生成，下限取 MinPerSlot，上限取 MaxConcurrent
func BuildDemands(slots []*Slot, templates []*RotationTemplate) []*SlotDemand {
	var demands []*SlotDemand
	for _, slot := range slots {
		for _, tpl := range templates {
			if !tpl.AppliesTo(slot) {
				continue
			}
			target := tpl.MinPerSlot
			if target == 0 {
				target = 1
			}
			demands = append(demands, &SlotDemand{
				BaseModel:   NewBaseModel(),
				SlotID:      slot.ID,
				TemplateID:  tpl.ID,
				MinCount:    tpl.MinPerSlot,
				MaxCount:    tpl.MaxConcurrent,
				TargetCount: target,
				Required:    tpl.MinPerSlot > 0,
			})
		}
	}
	return demands
}

// SortAssignments 按日期、时段、医师 ID 排序（确定性输出）
func SortAssignments(assignments []*Assignment) {
	sort.Slice(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if po, qo := PeriodOrder(a.Period), PeriodOrder(b.Period); po != qo {
			return po < qo
		}
		if a.PersonID != b.PersonID {
			return a.PersonID.String() < b.PersonID.String()
		}
		return a.TemplateID.String() < b.TemplateID.String()
	})
}

// ExternalShift 外部兼职工时记录（计入周时长上限，单独列示）
type ExternalShift struct {
	BaseModel
	PersonID uuid.UUID `json:"person_id" db:"person_id"`
	Date     string    `json:"date" db:"date"` // YYYY-MM-DD
	Hours    float64   `json:"hours" db:"hours"`
	Facility string    `json:"facility,omitempty" db:"facility"`
}
