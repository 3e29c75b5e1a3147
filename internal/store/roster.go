package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/model"
	"github.com/Euda1mon1a/Autonomous-Assignment-Program-Manager-sub029/pkg/scheduler/constraint"
)

// RosterStore 排班数据仓储
type RosterStore struct {
	db *DB
}

// NewRosterStore 创建排班数据仓储
func NewRosterStore(db *DB) *RosterStore {
	return &RosterStore{db: db}
}

// ListActivePeople 获取全部在岗医师
func (s *RosterStore) ListActivePeople(ctx context.Context) ([]*model.Person, error) {
	query := `
		SELECT id, name, code, role, status, pgy_level, fte, target_hours_per_week,
			created_at, updated_at
		FROM people
		WHERE status = 'active' AND deleted_at IS NULL
		ORDER BY code
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询医师列表失败: %w", err)
	}
	defer rows.Close()

	var people []*model.Person
	for rows.Next() {
		p := &model.Person{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Code, &p.Role, &p.Status, &p.PGYLevel, &p.FTE,
			&p.TargetHoursPerWeek, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描医师数据失败: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// ListTemplates 获取全部轮转模板
func (s *RosterStore) ListTemplates(ctx context.Context) ([]*model.RotationTemplate, error) {
	query := `
		SELECT id, name, code, activity, max_concurrent, min_per_slot,
			space_capacity, location_code, min_per_week, max_per_week, target_per_week,
			eligible_roles, min_pgy, max_pgy, tier_caps, requires_clinic_day,
			weekdays, periods, created_at, updated_at
		FROM rotation_templates
		WHERE deleted_at IS NULL
		ORDER BY code
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询轮转模板失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.RotationTemplate
	for rows.Next() {
		t := &model.RotationTemplate{}
		var rolesJSON, capsJSON, weekdaysJSON, periodsJSON []byte
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Code, &t.Activity, &t.MaxConcurrent, &t.MinPerSlot,
			&t.SpaceCapacity, &t.LocationCode, &t.MinPerWeek, &t.MaxPerWeek, &t.TargetPerWeek,
			&rolesJSON, &t.MinPGY, &t.MaxPGY, &capsJSON, &t.RequiresClinicDay,
			&weekdaysJSON, &periodsJSON, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描轮转模板失败: %w", err)
		}
		json.Unmarshal(rolesJSON, &t.EligibleRoles)
		json.Unmarshal(capsJSON, &t.TierCaps)
		json.Unmarshal(weekdaysJSON, &t.Weekdays)
		json.Unmarshal(periodsJSON, &t.Periods)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// ListSlots 获取日期范围内的时段单元
func (s *RosterStore) ListSlots(ctx context.Context, window model.DateRange) ([]*model.Slot, error) {
	query := `
		SELECT id, date, period, weekend, holiday, created_at, updated_at
		FROM slots
		WHERE date >= $1 AND date <= $2 AND deleted_at IS NULL
		ORDER BY date, period
	`

	rows, err := s.db.QueryContext(ctx, query, window.StartDate, window.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询时段单元失败: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		sl := &model.Slot{}
		if err := rows.Scan(
			&sl.ID, &sl.Date, &sl.Period, &sl.Weekend, &sl.Holiday,
			&sl.CreatedAt, &sl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描时段单元失败: %w", err)
		}
		slots = append(slots, sl)
	}
	return slots, rows.Err()
}

// ListAbsences 获取与日期范围有交集的缺勤记录
func (s *RosterStore) ListAbsences(ctx context.Context, window model.DateRange) ([]*model.Absence, error) {
	query := `
		SELECT id, person_id, type, start_date, end_date, blocking, reason,
			created_at, updated_at
		FROM absences
		WHERE start_date <= $2 AND end_date >= $1 AND deleted_at IS NULL
		ORDER BY start_date, person_id
	`

	rows, err := s.db.QueryContext(ctx, query, window.StartDate, window.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询缺勤记录失败: %w", err)
	}
	defer rows.Close()

	var absences []*model.Absence
	for rows.Next() {
		a := &model.Absence{}
		if err := rows.Scan(
			&a.ID, &a.PersonID, &a.Type, &a.StartDate, &a.EndDate, &a.Blocking,
			&a.Reason, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描缺勤记录失败: %w", err)
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// ListLockedAssignments 获取日期范围内锁定的既有分配
// 锁定分配作为求解的固定输入，求解器不得改动
func (s *RosterStore) ListLockedAssignments(ctx context.Context, window model.DateRange) ([]*model.Assignment, error) {
	return s.listAssignments(ctx, window, "locked = TRUE")
}

// ListAssignments 获取日期范围内的全部分配
func (s *RosterStore) ListAssignments(ctx context.Context, window model.DateRange) ([]*model.Assignment, error) {
	return s.listAssignments(ctx, window, "TRUE")
}

func (s *RosterStore) listAssignments(ctx context.Context, window model.DateRange, extra string) ([]*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT id, person_id, slot_id, template_id, date, period, hours,
			is_primary, source, locked, created_at, updated_at
		FROM assignments
		WHERE date >= $1 AND date <= $2 AND %s AND deleted_at IS NULL
		ORDER BY date, period, person_id
	`, extra)

	rows, err := s.db.QueryContext(ctx, query, window.StartDate, window.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询分配记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		if err := rows.Scan(
			&a.ID, &a.PersonID, &a.SlotID, &a.TemplateID, &a.Date, &a.Period,
			&a.Hours, &a.Primary, &a.Source, &a.Locked, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描分配记录失败: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListExternalShifts 获取日期范围内的外部兼职工时
func (s *RosterStore) ListExternalShifts(ctx context.Context, window model.DateRange) ([]*model.ExternalShift, error) {
	query := `
		SELECT id, person_id, date, hours, facility, created_at, updated_at
		FROM external_shifts
		WHERE date >= $1 AND date <= $2 AND deleted_at IS NULL
		ORDER BY date, person_id
	`

	rows, err := s.db.QueryContext(ctx, query, window.StartDate, window.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询外部工时失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.ExternalShift
	for rows.Next() {
		e := &model.ExternalShift{}
		if err := rows.Scan(
			&e.ID, &e.PersonID, &e.Date, &e.Hours, &e.Facility,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描外部工时失败: %w", err)
		}
		shifts = append(shifts, e)
	}
	return shifts, rows.Err()
}

// ReplaceSolverAssignments 替换日期范围内求解器生成的分配
// 锁定与手工分配保留，仅清除旧的求解结果后写入新方案
func (s *RosterStore) ReplaceSolverAssignments(ctx context.Context, window model.DateRange, assignments []*model.Assignment) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		deleteQuery := `
			UPDATE assignments SET deleted_at = $3
			WHERE date >= $1 AND date <= $2
				AND source = 'solver' AND locked = FALSE AND deleted_at IS NULL
		`
		if _, err := tx.ExecContext(ctx, deleteQuery, window.StartDate, window.EndDate, time.Now()); err != nil {
			return fmt.Errorf("清除旧求解结果失败: %w", err)
		}

		insertQuery := `
			INSERT INTO assignments (
				id, person_id, slot_id, template_id, date, period, hours,
				is_primary, source, locked, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		for _, a := range assignments {
			if a.Locked || a.Source != model.SourceSolver {
				continue
			}
			if a.ID == uuid.Nil {
				a.ID = uuid.New()
			}
			now := time.Now()
			if _, err := tx.ExecContext(ctx, insertQuery,
				a.ID, a.PersonID, a.SlotID, a.TemplateID, a.Date, a.Period, a.Hours,
				a.Primary, a.Source, a.Locked, now, now,
			); err != nil {
				return fmt.Errorf("写入分配失败: %w", err)
			}
		}
		return nil
	})
}

// BuildContext 组装求解上下文：医师、时段、模板、缺勤与锁定分配
func (s *RosterStore) BuildContext(ctx context.Context, window model.DateRange) (*constraint.Context, error) {
	people, err := s.ListActivePeople(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.ListSlots(ctx, window)
	if err != nil {
		return nil, err
	}
	absences, err := s.ListAbsences(ctx, window)
	if err != nil {
		return nil, err
	}
	locked, err := s.ListLockedAssignments(ctx, window)
	if err != nil {
		return nil, err
	}

	schedCtx := constraint.NewContext(window.StartDate, window.EndDate)
	schedCtx.SetPeople(people)
	schedCtx.SetSlots(slots)
	schedCtx.SetTemplates(templates)
	schedCtx.SetDemands(nil)
	schedCtx.SetAbsences(absences)
	schedCtx.SetAssignments(locked)
	return schedCtx, nil
}
