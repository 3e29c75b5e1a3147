// Package validator 提供工时合规校验
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/logger"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
)

// Rule 合规规则标识
type Rule string

const (
	RuleWeeklyHours Rule = "weekly_hours" // 滚动四周平均周工时上限
	RuleOneInSeven  Rule = "one_in_seven" // 每七天至少休息一天
	RuleShiftLength Rule = "shift_length" // 单次连班时长上限
	RuleSupervision Rule = "supervision"  // 住院医师带教比例
)

// Violation 一条合规违规
type Violation struct {
	Rule       Rule      `json:"rule"`
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name"`
	Date       string    `json:"date,omitempty"` // 违规起始日或窗口起始日
	Message    string    `json:"message"`
}

// PersonCompliance 单人合规概览
type PersonCompliance struct {
	PersonID           uuid.UUID `json:"person_id"`
	Name               string    `json:"name"`
	TotalHours         float64   `json:"total_hours"`
	MoonlightingHours  float64   `json:"moonlighting_hours"` // 外部兼职，单独列示
	MaxAvgWeeklyHours  float64   `json:"max_avg_weekly_hours"`
	MaxConsecutiveDays int       `json:"max_consecutive_days"`
	ViolationCount     int       `json:"violation_count"`
}

// ComplianceReport 合规报告
type ComplianceReport struct {
	Compliant        bool                            `json:"compliant"`
	Window           model.DateRange                 `json:"window"`
	ViolationsByRule map[Rule][]Violation            `json:"violations_by_rule"`
	PerPerson        map[uuid.UUID]*PersonCompliance `json:"per_person"`
}

// Config 校验参数
type Config struct {
	WeeklyHourCeiling  float64 // 滚动四周平均每周工时上限
	MaxConsecutiveDays int     // 连续在岗天数上限
	SupervisionRatio   int     // 每名带教医师最多督导的住院医师数
	JuniorShiftCap     float64 // PGY-1 单次连班上限（小时）
	SeniorShiftCap     float64 // 其余人员连班上限（小时）
	ShiftExtension     float64 // 连班上限之外的交接延长（小时）
}

// DefaultConfig 返回默认校验参数
func DefaultConfig() *Config {
	return &Config{
		WeeklyHourCeiling:  80,
		MaxConsecutiveDays: 6,
		SupervisionRatio:   4,
		JuniorShiftCap:     16,
		SeniorShiftCap:     24,
		ShiftExtension:     4,
	}
}

// Validator 工时合规校验器
// 纯函数式：只读取入参，不依赖排班上下文
type Validator struct {
	config *Config
	logger *logger.SchedulerLogger
}

// NewValidator 创建校验器
func NewValidator(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Validator{
		config: config,
		logger: logger.NewSchedulerLogger(),
	}
}

// Validate 对窗口内的排班执行全部合规规则
func (v *Validator) Validate(
	assignments []*model.Assignment,
	people []*model.Person,
	absences []*model.Absence,
	external []*model.ExternalShift,
	window model.DateRange,
) *ComplianceReport {
	report := &ComplianceReport{
		Compliant:        true,
		Window:           window,
		ViolationsByRule: make(map[Rule][]Violation),
		PerPerson:        make(map[uuid.UUID]*PersonCompliance),
	}

	personMap := make(map[uuid.UUID]*model.Person)
	for _, p := range people {
		personMap[p.ID] = p
		report.PerPerson[p.ID] = &PersonCompliance{PersonID: p.ID, Name: p.Name}
	}

	byPerson := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range assignments {
		if !window.Covers(a.Date) {
			continue
		}
		byPerson[a.PersonID] = append(byPerson[a.PersonID], a)
	}
	for _, pa := range byPerson {
		model.SortAssignments(pa)
	}

	externalByPerson := make(map[uuid.UUID][]*model.ExternalShift)
	for _, e := range external {
		if !window.Covers(e.Date) {
			continue
		}
		externalByPerson[e.PersonID] = append(externalByPerson[e.PersonID], e)
	}

	absencesByPerson := make(map[uuid.UUID][]*model.Absence)
	for _, ab := range absences {
		absencesByPerson[ab.PersonID] = append(absencesByPerson[ab.PersonID], ab)
	}

	for _, p := range people {
		summary := report.PerPerson[p.ID]
		for _, a := range byPerson[p.ID] {
			summary.TotalHours += a.Hours
		}
		for _, e := range externalByPerson[p.ID] {
			summary.MoonlightingHours += e.Hours
		}

		v.checkWeeklyHours(report, p, byPerson[p.ID], externalByPerson[p.ID], window)
		v.checkOneInSeven(report, p, byPerson[p.ID], absencesByPerson[p.ID], window)
		v.checkShiftLength(report, p, byPerson[p.ID])
	}

	v.checkSupervision(report, personMap, byPerson)

	for _, violations := range report.ViolationsByRule {
		for _, violation := range violations {
			report.Compliant = false
			if summary := report.PerPerson[violation.PersonID]; summary != nil {
				summary.ViolationCount++
			}
			v.logger.ComplianceViolation(string(violation.Rule), violation.PersonName, violation.Message)
		}
	}
	return report
}

// record 登记一条违规
func (r *ComplianceReport) record(rule Rule, p *model.Person, date, message string) {
	r.ViolationsByRule[rule] = append(r.ViolationsByRule[rule], Violation{
		Rule:       rule,
		PersonID:   p.ID,
		PersonName: p.Name,
		Date:       date,
		Message:    message,
	})
}

// checkWeeklyHours 滚动四周窗口的平均周工时
// 窗口自排班起始周的周日开始，每 7 天滚动一次；恰好等于上限视为合规
func (v *Validator) checkWeeklyHours(
	report *ComplianceReport,
	p *model.Person,
	assignments []*model.Assignment,
	external []*model.ExternalShift,
	window model.DateRange,
) {
	summary := report.PerPerson[p.ID]
	for ws := model.WeekStart(window.StartDate); ws <= window.EndDate; ws = model.AddDays(ws, 7) {
		we := model.AddDays(ws, 27)
		var total float64
		for _, a := range assignments {
			if a.Date >= ws && a.Date <= we {
				total += a.Hours
			}
		}
		for _, e := range external {
			if e.Date >= ws && e.Date <= we {
				total += e.Hours
			}
		}

		avg := total / 4
		if avg > summary.MaxAvgWeeklyHours {
			summary.MaxAvgWeeklyHours = avg
		}
		if avg > v.config.WeeklyHourCeiling {
			report.record(RuleWeeklyHours, p, ws,
				fmt.Sprintf("窗口 %s 起四周平均周工时 %.1f 小时，超过上限 %.0f 小时", ws, avg, v.config.WeeklyHourCeiling))
		}
	}
}

// checkOneInSeven 连续在岗天数
// 排定休息日将计数清零；记录在案的缺勤保持计数不变
func (v *Validator) checkOneInSeven(
	report *ComplianceReport,
	p *model.Person,
	assignments []*model.Assignment,
	absences []*model.Absence,
	window model.DateRange,
) {
	assigned := make(map[string]bool)
	for _, a := range assignments {
		assigned[a.Date] = true
	}
	hasAbsence := func(date string) bool {
		for _, ab := range absences {
			if ab.Covers(date) {
				return true
			}
		}
		return false
	}

	summary := report.PerPerson[p.ID]
	consecutive := 0
	reported := false
	for _, date := range model.DatesBetween(window) {
		switch {
		case assigned[date]:
			consecutive++
		case hasAbsence(date):
			// 保持计数
		default:
			consecutive = 0
			reported = false
		}
		if consecutive > summary.MaxConsecutiveDays {
			summary.MaxConsecutiveDays = consecutive
		}
		if consecutive > v.config.MaxConsecutiveDays && !reported {
			report.record(RuleOneInSeven, p, date,
				fmt.Sprintf("截至 %s 已连续在岗 %d 天，超过上限 %d 天", date, consecutive, v.config.MaxConsecutiveDays))
			reported = true
		}
	}
}

// checkShiftLength 同日连续时段构成的连班时长
// PGY-1 上限 16 小时；其余人员上限 24 小时外加交接延长
func (v *Validator) checkShiftLength(report *ComplianceReport, p *model.Person, assignments []*model.Assignment) {
	limit := v.config.SeniorShiftCap + v.config.ShiftExtension
	if p.IsJunior() {
		limit = v.config.JuniorShiftCap
	}

	byDate := make(map[string]map[model.Period]float64)
	for _, a := range assignments {
		if byDate[a.Date] == nil {
			byDate[a.Date] = make(map[model.Period]float64)
		}
		byDate[a.Date][a.Period] += a.Hours
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	ordered := []model.Period{model.PeriodAM, model.PeriodPM, model.PeriodNight}
	for _, date := range dates {
		periods := byDate[date]
		var chain float64
		for _, period := range ordered {
			hours, ok := periods[period]
			if !ok {
				if chain > limit {
					report.record(RuleShiftLength, p, date,
						fmt.Sprintf("%s 连班 %.1f 小时，超过上限 %.0f 小时", date, chain, limit))
				}
				chain = 0
				continue
			}
			chain += hours
		}
		if chain > limit {
			report.record(RuleShiftLength, p, date,
				fmt.Sprintf("%s 连班 %.1f 小时，超过上限 %.0f 小时", date, chain, limit))
		}
	}
}

// checkSupervision 按模板周统计住院医师与带教医师比例
// 无带教医师却有住院医师的周按违规处理
func (v *Validator) checkSupervision(
	report *ComplianceReport,
	personMap map[uuid.UUID]*model.Person,
	byPerson map[uuid.UUID][]*model.Assignment,
) {
	type weekKey struct {
		templateID uuid.UUID
		weekStart  string
	}
	residents := make(map[weekKey]map[uuid.UUID]bool)
	faculty := make(map[weekKey]map[uuid.UUID]bool)

	for personID, assignments := range byPerson {
		p := personMap[personID]
		if p == nil {
			continue
		}
		for _, a := range assignments {
			key := weekKey{templateID: a.TemplateID, weekStart: model.WeekStart(a.Date)}
			switch {
			case p.IsResident():
				if residents[key] == nil {
					residents[key] = make(map[uuid.UUID]bool)
				}
				residents[key][personID] = true
			case p.IsFaculty():
				if faculty[key] == nil {
					faculty[key] = make(map[uuid.UUID]bool)
				}
				faculty[key][personID] = true
			}
		}
	}

	keys := make([]weekKey, 0, len(residents))
	for key := range residents {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].weekStart != keys[j].weekStart {
			return keys[i].weekStart < keys[j].weekStart
		}
		return keys[i].templateID.String() < keys[j].templateID.String()
	})

	for _, key := range keys {
		residentCount := len(residents[key])
		facultyCount := len(faculty[key])

		// 任取一名该周的住院医师用于违规归属
		var anchor *model.Person
		ids := make([]string, 0, residentCount)
		byStr := make(map[string]uuid.UUID, residentCount)
		for id := range residents[key] {
			ids = append(ids, id.String())
			byStr[id.String()] = id
		}
		sort.Strings(ids)
		anchor = personMap[byStr[ids[0]]]

		if facultyCount == 0 {
			report.record(RuleSupervision, anchor, key.weekStart,
				fmt.Sprintf("%s 起的一周有 %d 名住院医师但无带教医师", key.weekStart, residentCount))
			continue
		}
		if residentCount > v.config.SupervisionRatio*facultyCount {
			report.record(RuleSupervision, anchor, key.weekStart,
				fmt.Sprintf("%s 起的一周 %d 名住院医师对 %d 名带教医师，超过 %d:1 的比例",
					key.weekStart, residentCount, facultyCount, v.config.SupervisionRatio))
		}
	}
}
