// Package model 定义生产排程引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductionLine 产线
type ProductionLine struct {
	BaseModel
	WorkspaceID uuid.UUID `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	Efficiency  float64   `json:"efficiency" db:"efficiency"` // 标称效率因子

	// 关联数据（按需加载）
	WorkStations []*WorkStation      `json:"work_stations,omitempty" db:"-"`
	Allocations  []*WorkerAllocation `json:"allocations,omitempty" db:"-"`
}

// WorkStation 工位
type WorkStation struct {
	BaseModel
	WorkspaceID      uuid.UUID `json:"workspace_id" db:"workspace_id"`
	ProductionLineID uuid.UUID `json:"production_line_id" db:"production_line_id"`
	Name             string    `json:"name" db:"name"`
	StationType      string    `json:"station_type,omitempty" db:"station_type"` // cutting/printing/sewing/qc
	IsActive         bool      `json:"is_active" db:"is_active"`
}

// ProductionSchedule 生产排程
type ProductionSchedule struct {
	BaseModel
	WorkspaceID       uuid.UUID      `json:"workspace_id" db:"workspace_id"`
	ProductionLineID  uuid.UUID      `json:"production_line_id" db:"production_line_id"`
	OrderNumber       string         `json:"order_number,omitempty" db:"order_number"`
	Status            ScheduleStatus `json:"status" db:"status"`
	PlannedStart      time.Time      `json:"planned_start" db:"planned_start"`
	PlannedEnd        time.Time      `json:"planned_end" db:"planned_end"`
	ActualStart       *time.Time     `json:"actual_start,omitempty" db:"actual_start"`
	ActualEnd         *time.Time     `json:"actual_end,omitempty" db:"actual_end"`
	CompletedQuantity int            `json:"completed_quantity" db:"completed_quantity"`

	// 关联数据（按需加载）
	Assignments  []*WorkerAssignment `json:"worker_assignments,omitempty" db:"-"`
	ProgressLogs []*ProgressLog      `json:"progress_logs,omitempty" db:"-"`
}

// PlannedHours 返回计划工时
func (s *ProductionSchedule) PlannedHours() float64 {
	return s.PlannedEnd.Sub(s.PlannedStart).Hours()
}

// ActualHours 返回实际工时，实际时间不完整时为 0
func (s *ProductionSchedule) ActualHours() float64 {
	if s.ActualStart == nil || s.ActualEnd == nil {
		return 0
	}
	return s.ActualEnd.Sub(*s.ActualStart).Hours()
}

// IsCompleted 检查排程是否完成
func (s *ProductionSchedule) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// IsOnTime 检查排程是否按时交付（实际结束不晚于计划结束）
func (s *ProductionSchedule) IsOnTime() bool {
	return s.ActualEnd != nil && !s.ActualEnd.After(s.PlannedEnd)
}

// RejectedQuantity 汇总进度日志中的不良品数量
func (s *ProductionSchedule) RejectedQuantity() int {
	total := 0
	for _, log := range s.ProgressLogs {
		total += log.QuantityRejected
	}
	return total
}

// FirstAssignedWorker 返回第一条指派的工人ID，无指派时返回 uuid.Nil
func (s *ProductionSchedule) FirstAssignedWorker() uuid.UUID {
	if len(s.Assignments) == 0 {
		return uuid.Nil
	}
	return s.Assignments[0].WorkerID
}

// ProgressLog 进度日志
// 由生产执行流程追加，本引擎只读
type ProgressLog struct {
	BaseModel
	WorkspaceID          uuid.UUID `json:"workspace_id" db:"workspace_id"`
	ProductionScheduleID uuid.UUID `json:"production_schedule_id" db:"production_schedule_id"`
	LoggedAt             time.Time `json:"logged_at" db:"logged_at"`
	QualityScore         *float64  `json:"quality_score,omitempty" db:"quality_score"`
	QuantityRejected     int       `json:"quantity_rejected" db:"quantity_rejected"`
	Notes                string    `json:"notes,omitempty" db:"notes"`
}
