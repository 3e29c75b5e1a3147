// Package constraint 定义约束接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/errors"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypePrimarySlotUniqueness Type = "primary_slot_uniqueness"
	TypeTemplateCapacity      Type = "template_capacity"
	TypeSpaceCapacity         Type = "space_capacity"
	TypeBlockingAbsence       Type = "blocking_absence"
	TypeJuniorOnlySlot        Type = "junior_only_slot"
	TypeFacultySupervisorSlot Type = "faculty_supervisor_slot"
	TypeCallCoverage          Type = "call_coverage"
	TypeInpatientTierCap      Type = "inpatient_tier_cap"
	TypeWeeklyHourCeiling     Type = "weekly_hour_ceiling"
	TypeOneInSevenRest        Type = "one_in_seven_rest"
	TypeSupervisionRatio      Type = "supervision_ratio"

	// 软约束类型
	TypeCoverageMaximization Type = "coverage_maximization"
	TypeClinicDayRequirement Type = "clinic_day_requirement"
	TypeWorkloadEquity       Type = "workload_equity"
	TypeAssignmentContinuity Type = "assignment_continuity"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个排班方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估单个候选分配（候选尚未加入上下文）
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	PersonID       uuid.UUID `json:"person_id,omitempty"`
	SlotID         uuid.UUID `json:"slot_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 排班上下文（一次求解的完整输入快照与当前方案）
type Context struct {
	// 输入数据
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
	People    []*model.Person           `json:"people"`
	Slots     []*model.Slot             `json:"slots"`
	Templates []*model.RotationTemplate `json:"templates"`
	Demands   []*model.SlotDemand       `json:"demands"`
	Absences  []*model.Absence          `json:"absences"`

	// 当前排班结果
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	personMap           map[uuid.UUID]*model.Person
	slotMap             map[uuid.UUID]*model.Slot
	templateMap         map[uuid.UUID]*model.RotationTemplate
	absencesByPerson    map[uuid.UUID][]*model.Absence
	assignmentsByPerson map[uuid.UUID][]*model.Assignment
	assignmentsByDate   map[string][]*model.Assignment
	assignmentsBySlot   map[uuid.UUID][]*model.Assignment

	// 额外配置
	Config map[string]interface{} `json:"config,omitempty"`
}

// NewContext 创建新的排班上下文
func NewContext(startDate, endDate string) *Context {
	return &Context{
		StartDate:           startDate,
		EndDate:             endDate,
		People:              make([]*model.Person, 0),
		Slots:               make([]*model.Slot, 0),
		Templates:           make([]*model.RotationTemplate, 0),
		Demands:             make([]*model.SlotDemand, 0),
		Absences:            make([]*model.Absence, 0),
		Assignments:         make([]*model.Assignment, 0),
		personMap:           make(map[uuid.UUID]*model.Person),
		slotMap:             make(map[uuid.UUID]*model.Slot),
		templateMap:         make(map[uuid.UUID]*model.RotationTemplate),
		absencesByPerson:    make(map[uuid.UUID][]*model.Absence),
		assignmentsByPerson: make(map[uuid.UUID][]*model.Assignment),
		assignmentsByDate:   make(map[string][]*model.Assignment),
		assignmentsBySlot:   make(map[uuid.UUID][]*model.Assignment),
		Config:              make(map[string]interface{}),
	}
}

// SetPeople 设置医师列表
func (c *Context) SetPeople(people []*model.Person) {
	c.People = people
	c.personMap = make(map[uuid.UUID]*model.Person)
	for _, p := range people {
		c.personMap[p.ID] = p
	}
}

// SetSlots 设置时段单元列表
func (c *Context) SetSlots(slots []*model.Slot) {
	c.Slots = slots
	c.slotMap = make(map[uuid.UUID]*model.Slot)
	for _, s := range slots {
		c.slotMap[s.ID] = s
	}
}

// SetTemplates 设置轮转模板列表
func (c *Context) SetTemplates(templates []*model.RotationTemplate) {
	c.Templates = templates
	c.templateMap = make(map[uuid.UUID]*model.RotationTemplate)
	for _, t := range templates {
		c.templateMap[t.ID] = t
	}
}

// SetDemands 设置时段需求；为空时由时段与模板推导
func (c *Context) SetDemands(demands []*model.SlotDemand) {
	if len(demands) == 0 {
		demands = model.BuildDemands(c.Slots, c.Templates)
	}
	c.Demands = demands
}

// SetAbsences 设置缺勤记录
func (c *Context) SetAbsences(absences []*model.Absence) {
	c.Absences = absences
	c.absencesByPerson = make(map[uuid.UUID][]*model.Absence)
	for _, a := range absences {
		c.absencesByPerson[a.PersonID] = append(c.absencesByPerson[a.PersonID], a)
	}
}

// SetAssignments 设置排班分配
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildAssignmentIndexes()
}

// AddAssignment 添加排班分配
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.assignmentsByPerson[a.PersonID] = append(c.assignmentsByPerson[a.PersonID], a)
	c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	c.assignmentsBySlot[a.SlotID] = append(c.assignmentsBySlot[a.SlotID], a)
}

// RemoveAssignment 移除排班分配（锁定的分配不可移除）
func (c *Context) RemoveAssignment(id uuid.UUID) {
	for i, a := range c.Assignments {
		if a.ID == id {
			if a.Locked {
				return
			}
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			break
		}
	}
	c.rebuildAssignmentIndexes()
}

// rebuildAssignmentIndexes 重建分配索引
func (c *Context) rebuildAssignmentIndexes() {
	c.assignmentsByPerson = make(map[uuid.UUID][]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	c.assignmentsBySlot = make(map[uuid.UUID][]*model.Assignment)
	for _, a := range c.Assignments {
		c.assignmentsByPerson[a.PersonID] = append(c.assignmentsByPerson[a.PersonID], a)
		c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
		c.assignmentsBySlot[a.SlotID] = append(c.assignmentsBySlot[a.SlotID], a)
	}
}

// Clone 复制上下文（分配列表独立，实体共享）
func (c *Context) Clone() *Context {
	clone := NewContext(c.StartDate, c.EndDate)
	clone.SetPeople(c.People)
	clone.SetSlots(c.Slots)
	clone.SetTemplates(c.Templates)
	clone.Demands = c.Demands
	clone.SetAbsences(c.Absences)
	assignments := make([]*model.Assignment, len(c.Assignments))
	copy(assignments, c.Assignments)
	clone.SetAssignments(assignments)
	for k, v := range c.Config {
		clone.Config[k] = v
	}
	return clone
}

// GetPerson 获取医师
func (c *Context) GetPerson(id uuid.UUID) *model.Person {
	return c.personMap[id]
}

// GetSlot 获取时段单元
func (c *Context) GetSlot(id uuid.UUID) *model.Slot {
	return c.slotMap[id]
}

// GetTemplate 获取轮转模板
func (c *Context) GetTemplate(id uuid.UUID) *model.RotationTemplate {
	return c.templateMap[id]
}

// GetPersonAssignments 获取医师的所有排班
func (c *Context) GetPersonAssignments(personID uuid.UUID) []*model.Assignment {
	return c.assignmentsByPerson[personID]
}

// GetDateAssignments 获取某日期的所有排班
func (c *Context) GetDateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// GetSlotAssignments 获取某时段单元的所有排班
func (c *Context) GetSlotAssignments(slotID uuid.UUID) []*model.Assignment {
	return c.assignmentsBySlot[slotID]
}

// CountDemandAssigned 统计某需求（时段+模板）当前已分配人数
func (c *Context) CountDemandAssigned(slotID, templateID uuid.UUID) int {
	count := 0
	for _, a := range c.assignmentsBySlot[slotID] {
		if a.TemplateID == templateID {
			count++
		}
	}
	return count
}

// GetPersonAbsences 获取医师的缺勤记录
func (c *Context) GetPersonAbsences(personID uuid.UUID) []*model.Absence {
	return c.absencesByPerson[personID]
}

// HasBlockingAbsence 检查医师某天是否有阻断性缺勤
func (c *Context) HasBlockingAbsence(personID uuid.UUID, date string) bool {
	for _, a := range c.absencesByPerson[personID] {
		if a.Blocking && a.Covers(date) {
			return true
		}
	}
	return false
}

// HasAnyAbsence 检查医师某天是否有任何缺勤记录（含非阻断）
func (c *Context) HasAnyAbsence(personID uuid.UUID, date string) bool {
	for _, a := range c.absencesByPerson[personID] {
		if a.Covers(date) {
			return true
		}
	}
	return false
}

// GetPersonHoursOnDate 获取医师某天的工作时长
func (c *Context) GetPersonHoursOnDate(personID uuid.UUID, date string) float64 {
	var hours float64
	for _, a := range c.assignmentsByPerson[personID] {
		if a.Date == date {
			hours += a.Hours
		}
	}
	return hours
}

// GetPersonHoursInRange 获取医师在日期范围内的工作时长
func (c *Context) GetPersonHoursInRange(personID uuid.UUID, startDate, endDate string) float64 {
	var hours float64
	for _, a := range c.assignmentsByPerson[personID] {
		if a.Date >= startDate && a.Date <= endDate {
			hours += a.Hours
		}
	}
	return hours
}

// ConsecutiveDutyDays 计算若在目标日期排班将形成的连续在岗天数
// 缺勤日不计入也不打断连续段（计数保持），无排班且无缺勤的日子打断
func (c *Context) ConsecutiveDutyDays(personID uuid.UUID, targetDate string) int {
	dates := make(map[string]bool)
	for _, a := range c.assignmentsByPerson[personID] {
		dates[a.Date] = true
	}

	count := 1 // 目标日期本身
	guard := 0

	// 往前数
	current := model.AddDays(targetDate, -1)
	for guard < 60 {
		guard++
		if dates[current] {
			count++
		} else if !c.HasAnyAbsence(personID, current) {
			break
		}
		current = model.AddDays(current, -1)
	}

	// 往后数
	guard = 0
	current = model.AddDays(targetDate, 1)
	for guard < 60 {
		guard++
		if dates[current] {
			count++
		} else if !c.HasAnyAbsence(personID, current) {
			break
		}
		current = model.AddDays(current, 1)
	}

	return count
}

// Validate 求解前的上下文完整性校验
func (c *Context) Validate() error {
	if c.StartDate == "" || c.EndDate == "" || c.StartDate > c.EndDate {
		return errors.ContextValidation("排班日期范围无效")
	}
	if len(c.Slots) == 0 {
		return errors.ContextValidation("时段单元列表为空")
	}
	if len(c.People) == 0 {
		return errors.ContextValidation("医师列表为空")
	}
	for _, d := range c.Demands {
		if c.slotMap[d.SlotID] == nil {
			return errors.ContextValidation("需求引用了不存在的时段单元").
				WithField("slot_id", d.SlotID.String())
		}
		if c.templateMap[d.TemplateID] == nil {
			return errors.ContextValidation("需求引用了不存在的轮转模板").
				WithField("template_id", d.TemplateID.String())
		}
		if d.MaxCount > 0 && d.MinCount > d.MaxCount {
			return errors.ContextValidation("需求人数下限大于上限").
				WithField("slot_id", d.SlotID.String())
		}
	}
	seen := make(map[string]bool)
	for _, a := range c.Assignments {
		if c.personMap[a.PersonID] == nil {
			return errors.ContextValidation("既有分配引用了不存在的医师").
				WithField("person_id", a.PersonID.String())
		}
		if c.slotMap[a.SlotID] == nil {
			return errors.ContextValidation("既有分配引用了不存在的时段单元").
				WithField("slot_id", a.SlotID.String())
		}
		if a.Primary {
			key := a.PersonID.String() + "/" + a.SlotID.String()
			if seen[key] {
				return errors.ContextValidation("同一医师在同一时段存在多个主分配").
					WithField("person_id", a.PersonID.String()).
					WithField("slot_id", a.SlotID.String())
			}
			seen[key] = true
		}
	}
	return nil
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
