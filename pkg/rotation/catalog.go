// Package rotation 提供轮转模板目录与校验
package rotation

import (
	"time"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

// Catalog 轮转模板目录
type Catalog struct {
	// 各活动类型的默认单时段容量
	defaultCapacity map[model.Activity]int
}

// NewCatalog 创建轮转模板目录
func NewCatalog() *Catalog {
	return &Catalog{
		defaultCapacity: map[model.Activity]int{
			model.ActivityClinic:    6,
			model.ActivityInpatient: 4,
			model.ActivityCall:      1,
			model.ActivityDidactic:  0, // 不限
			model.ActivityElective:  2,
		},
	}
}

// DefaultTemplates 返回标准住院医师培训项目的轮转模板
// 用作演示数据集，也可作为新项目的起始配置
func (c *Catalog) DefaultTemplates() []*model.RotationTemplate {
	return []*model.RotationTemplate{
		{
			BaseModel:     model.NewBaseModel(),
			Name:          "普通门诊",
			Code:          "CLINIC-GEN",
			Activity:      model.ActivityClinic,
			MaxConcurrent: c.defaultCapacity[model.ActivityClinic],
			MinPerSlot:    1,
			SpaceCapacity: 8,
			LocationCode:  "clinic-a",
			Periods:       []model.Period{model.PeriodAM, model.PeriodPM},
		},
		{
			BaseModel:     model.NewBaseModel(),
			Name:          "新人门诊",
			Code:          "CLINIC-JR",
			Activity:      model.ActivityClinic,
			MaxConcurrent: 4,
			SpaceCapacity: 8,
			LocationCode:  "clinic-a",
			EligibleRoles: []model.Role{model.RoleResident},
			MaxPGY:        1,
			Weekdays:      []time.Weekday{time.Wednesday},
			Periods:       []model.Period{model.PeriodAM},
		},
		{
			BaseModel:         model.NewBaseModel(),
			Name:              "住院病房",
			Code:              "WARD",
			Activity:          model.ActivityInpatient,
			MaxConcurrent:     c.defaultCapacity[model.ActivityInpatient],
			MinPerSlot:        1,
			EligibleRoles:     []model.Role{model.RoleResident, model.RoleFaculty},
			TierCaps:          map[int]int{1: 2, 2: 2, 3: 1},
			RequiresClinicDay: true,
			Periods:           []model.Period{model.PeriodAM, model.PeriodPM},
		},
		{
			BaseModel:     model.NewBaseModel(),
			Name:          "带教查房",
			Code:          "ATTEND",
			Activity:      model.ActivityInpatient,
			MaxConcurrent: 2,
			MinPerSlot:    1,
			EligibleRoles: []model.Role{model.RoleFaculty},
			Weekdays:      []time.Weekday{time.Wednesday},
			Periods:       []model.Period{model.PeriodAM, model.PeriodPM},
		},
		{
			BaseModel:     model.NewBaseModel(),
			Name:          "夜班值班",
			Code:          "CALL",
			Activity:      model.ActivityCall,
			MaxConcurrent: c.defaultCapacity[model.ActivityCall],
			MinPerSlot:    1,
			EligibleRoles: []model.Role{model.RoleFaculty, model.RoleAdjunct},
			Periods:       []model.Period{model.PeriodNight},
		},
		{
			BaseModel: model.NewBaseModel(),
			Name:      "教学讲座",
			Code:      "DIDACTIC",
			Activity:  model.ActivityDidactic,
			Weekdays:  []time.Weekday{time.Friday},
			Periods:   []model.Period{model.PeriodPM},
		},
		{
			BaseModel:     model.NewBaseModel(),
			Name:          "选修轮转",
			Code:          "ELECTIVE",
			Activity:      model.ActivityElective,
			MaxConcurrent: c.defaultCapacity[model.ActivityElective],
			EligibleRoles: []model.Role{model.RoleResident},
			MinPGY:        2,
			Periods:       []model.Period{model.PeriodAM, model.PeriodPM},
		},
	}
}

// ValidateTemplate 校验轮转模板配置
func (c *Catalog) ValidateTemplate(tpl *model.RotationTemplate) error {
	ve := &errors.ValidationErrors{}

	if tpl.Name == "" {
		ve.Add("name", "模板名称不能为空")
	}
	switch tpl.Activity {
	case model.ActivityClinic, model.ActivityInpatient, model.ActivityCall,
		model.ActivityDidactic, model.ActivityElective:
	default:
		ve.Add("activity", "未知的轮转活动类型")
	}
	if tpl.MaxConcurrent < 0 {
		ve.Add("max_concurrent", "单时段容量不能为负")
	}
	if tpl.MinPerSlot < 0 {
		ve.Add("min_per_slot", "单时段需求下限不能为负")
	}
	if tpl.MaxConcurrent > 0 && tpl.MinPerSlot > tpl.MaxConcurrent {
		ve.Add("min_per_slot", "需求下限不能超过单时段容量")
	}
	if tpl.SpaceCapacity > 0 && tpl.LocationCode == "" {
		ve.Add("location_code", "声明空间容量时必须指定空间标识")
	}
	if tpl.MinPGY < 0 || tpl.MaxPGY < 0 {
		ve.Add("pgy", "年级限制不能为负")
	}
	if tpl.MinPGY > 0 && tpl.MaxPGY > 0 && tpl.MinPGY > tpl.MaxPGY {
		ve.Add("pgy", "年级下限不能高于上限")
	}
	if tpl.MinPerWeek > 0 && tpl.MaxPerWeek > 0 && tpl.MinPerWeek > tpl.MaxPerWeek {
		ve.Add("per_week", "每周下限不能高于上限")
	}
	for pgy, limit := range tpl.TierCaps {
		if pgy < 1 || limit < 0 {
			ve.Add("tier_caps", "年级容量配置无效")
		}
	}
	if tpl.Activity == model.ActivityCall {
		for _, p := range tpl.Periods {
			if p != model.PeriodNight {
				ve.Add("periods", "值班模板只能适用于夜班时段")
			}
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ValidateAll 校验全部模板并返回首个错误
func (c *Catalog) ValidateAll(templates []*model.RotationTemplate) error {
	for _, tpl := range templates {
		if err := c.ValidateTemplate(tpl); err != nil {
			return err
		}
	}
	return nil
}
