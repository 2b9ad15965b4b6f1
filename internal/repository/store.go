// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// Store 排程引擎的持久化门面
// 聚合各仓储，提供四个引擎算法所需的全部查询/写入原语
type Store struct {
	Workers     *WorkerRepository
	Lines       *LineRepository
	Allocations *AllocationRepository
	Schedules   *ScheduleRepository
	Assignments *AssignmentRepository
}

// NewStore 创建持久化门面
func NewStore(db TxBeginner) *Store {
	return &Store{
		Workers:     NewWorkerRepository(db),
		Lines:       NewLineRepository(db),
		Allocations: NewAllocationRepository(db),
		Schedules:   NewScheduleRepository(db),
		Assignments: NewAssignmentRepository(db),
	}
}

// GetWorker 按ID查找工人，不存在时返回 (nil, nil)
func (s *Store) GetWorker(ctx context.Context, workspaceID, workerID uuid.UUID) (*model.Worker, error) {
	return s.Workers.GetByID(ctx, workspaceID, workerID)
}

// ListActiveWorkers 查找工作区内在职工人（有限量）
func (s *Store) ListActiveWorkers(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*model.Worker, error) {
	return s.Workers.ListActive(ctx, workspaceID, limit)
}

// CountAssignmentConflicts 统计时间窗口内该工人的既有指派数
func (s *Store) CountAssignmentConflicts(ctx context.Context, workspaceID, workerID uuid.UUID, window model.TimeRange) (int, error) {
	return s.Assignments.CountConflicts(ctx, workspaceID, workerID, window)
}

// GetAllocation 查找工人某日期/班次的工时分配，不存在时返回 (nil, nil)
func (s *Store) GetAllocation(ctx context.Context, workspaceID, workerID uuid.UUID, date string, shift model.Shift) (*model.WorkerAllocation, error) {
	return s.Allocations.GetForShift(ctx, workspaceID, workerID, date, shift)
}

// CreateAssignment 创建指派记录（串行化检查与写入）
func (s *Store) CreateAssignment(ctx context.Context, assignment *model.WorkerAssignment) error {
	return s.Assignments.Create(ctx, assignment)
}

// GetLineForShift 查找产线及其当日/班次的工时分配与在用工位，不存在时返回 (nil, nil)
func (s *Store) GetLineForShift(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time, shift model.Shift) (*model.ProductionLine, error) {
	return s.Lines.GetForShift(ctx, workspaceID, lineID, date, shift)
}

// ListLineAssignments 查找产线当日的指派记录
func (s *Store) ListLineAssignments(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	return s.Assignments.ListByLine(ctx, workspaceID, lineID, date)
}

// ListWorkerAssignments 查找工人当日全部指派
func (s *Store) ListWorkerAssignments(ctx context.Context, workspaceID, workerID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	return s.Assignments.ListByWorker(ctx, workspaceID, workerID, date)
}

// ListSchedulesByIDs 按ID集合查找生产排程（含指派记录）
func (s *Store) ListSchedulesByIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]*model.ProductionSchedule, error) {
	return s.Schedules.ListByIDs(ctx, workspaceID, ids)
}

// ListSchedulesForDay 查找计划开始时间落在当日的生产排程（含指派与进度日志）
func (s *Store) ListSchedulesForDay(ctx context.Context, workspaceID uuid.UUID, day model.TimeRange, lineID, workerID *uuid.UUID) ([]*model.ProductionSchedule, error) {
	return s.Schedules.ListForDay(ctx, workspaceID, day, lineID, workerID)
}
