// Package model 定义生产排程引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// 默认工人档案值
// 技能等级与历史效率目前没有独立的档案实体，统一从这里取默认值；
// 分配记录上携带的技能等级优先于默认值。
const (
	DefaultSkillLevel SkillLevel = SkillIntermediate
	DefaultEfficiency float64    = 85
)

// Worker 工人（即员工）
type Worker struct {
	BaseModel
	WorkspaceID uuid.UUID `json:"workspace_id" db:"workspace_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	BaseSalary  float64   `json:"base_salary" db:"base_salary"` // 基础时薪
}

// Name 返回工人显示名
func (w *Worker) Name() string {
	if w.LastName == "" {
		return w.FirstName
	}
	return w.FirstName + " " + w.LastName
}

// Profile 返回工人的技能档案
// 没有真实的技能档案来源时使用默认值
func (w *Worker) Profile() WorkerProfile {
	return WorkerProfile{
		SkillLevel: DefaultSkillLevel,
		Efficiency: DefaultEfficiency,
		HourlyRate: w.BaseSalary,
	}
}

// WorkerProfile 工人技能档案
type WorkerProfile struct {
	SkillLevel SkillLevel `json:"skill_level"`
	Efficiency float64    `json:"efficiency"`  // 历史效率 (%)
	HourlyRate float64    `json:"hourly_rate"` // 时薪
}

// WorkerAllocation 工时分配
// 表示某工人在某日期/班次可被排的工时上限
type WorkerAllocation struct {
	BaseModel
	WorkspaceID      uuid.UUID  `json:"workspace_id" db:"workspace_id"`
	WorkerID         uuid.UUID  `json:"worker_id" db:"worker_id"`
	ProductionLineID *uuid.UUID `json:"production_line_id,omitempty" db:"production_line_id"`
	AllocationDate   string     `json:"allocation_date" db:"allocation_date"` // YYYY-MM-DD
	Shift            Shift      `json:"shift" db:"shift"`
	HoursAllocated   float64    `json:"hours_allocated" db:"hours_allocated"`
	HourlyRate       float64    `json:"hourly_rate" db:"hourly_rate"`
	SkillLevel       SkillLevel `json:"skill_level" db:"skill_level"`
}

// WorkerAssignment 工作指派
// 将工人的一段工时承诺到具体的生产排程/工位，从分配额度中扣减
type WorkerAssignment struct {
	BaseModel
	WorkspaceID          uuid.UUID  `json:"workspace_id" db:"workspace_id"`
	ProductionScheduleID uuid.UUID  `json:"production_schedule_id" db:"production_schedule_id"`
	WorkerID             uuid.UUID  `json:"worker_id" db:"worker_id"`
	WorkStationID        *uuid.UUID `json:"work_station_id,omitempty" db:"work_station_id"`
	AssignedDate         string     `json:"assigned_date" db:"assigned_date"` // YYYY-MM-DD
	AssignedHours        float64    `json:"assigned_hours" db:"assigned_hours"`
}

// IsOnDate 检查指派是否在指定日期
func (a *WorkerAssignment) IsOnDate(date string) bool {
	return a.AssignedDate == date
}

// SumAssignedHours 汇总指派工时
func SumAssignedHours(assignments []*WorkerAssignment) float64 {
	var total float64
	for _, a := range assignments {
		total += a.AssignedHours
	}
	return total
}
