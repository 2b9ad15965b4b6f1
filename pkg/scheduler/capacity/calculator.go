// Package capacity 提供产线与工人的产能核算
package capacity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// Store 产能核算依赖的持久化原语
type Store interface {
	// GetLineForShift 查找产线及其当日/班次的工时分配与在用工位，不存在时返回 (nil, nil)
	GetLineForShift(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time, shift model.Shift) (*model.ProductionLine, error)

	// ListLineAssignments 查找产线当日的指派记录
	ListLineAssignments(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error)

	// GetWorker 按ID查找工人，不存在时返回 (nil, nil)
	GetWorker(ctx context.Context, workspaceID, workerID uuid.UUID) (*model.Worker, error)

	// GetAllocation 查找工人某日期/班次的工时分配，不存在时返回 (nil, nil)
	GetAllocation(ctx context.Context, workspaceID, workerID uuid.UUID, date string, shift model.Shift) (*model.WorkerAllocation, error)

	// ListWorkerAssignments 查找工人当日全部指派
	ListWorkerAssignments(ctx context.Context, workspaceID, workerID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error)
}

// LineCapacity 产线产能
type LineCapacity struct {
	ProductionLineID uuid.UUID   `json:"production_line_id"`
	Date             string      `json:"date"`
	Shift            model.Shift `json:"shift"`
	TotalHours       float64     `json:"total_hours"`
	AvailableHours   float64     `json:"available_hours"`
	UtilizationRate  float64     `json:"utilization_rate"` // %
	WorkerCount      int         `json:"worker_count"`
	Efficiency       float64     `json:"efficiency"`
}

// WorkerCapacity 工人产能
type WorkerCapacity struct {
	WorkerID       uuid.UUID        `json:"worker_id"`
	Date           string           `json:"date"`
	Shift          model.Shift      `json:"shift"`
	SkillLevel     model.SkillLevel `json:"skill_level"`
	HourlyRate     float64          `json:"hourly_rate"`
	AvailableHours float64          `json:"available_hours"`
	AssignedHours  float64          `json:"assigned_hours"`
	Efficiency     float64          `json:"efficiency"`
	IsAvailable    bool             `json:"is_available"`
}

// Calculator 产能核算器
// 纯读操作，无副作用；相同输入结果可复现
type Calculator struct {
	store Store
}

// NewCalculator 创建产能核算器
func NewCalculator(store Store) *Calculator {
	return &Calculator{store: store}
}

// LineCapacity 核算产线某日期/班次的产能
func (c *Calculator) LineCapacity(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time, shift model.Shift) (*LineCapacity, error) {
	if !shift.Valid() {
		return nil, errors.New(errors.CodeInvalidShift, "未知班次: "+string(shift))
	}

	line, err := c.store.GetLineForShift(ctx, workspaceID, lineID, date, shift)
	if err != nil {
		return nil, errors.Database(err, "查找产线")
	}
	if line == nil {
		return nil, errors.LineNotFound(lineID.String())
	}

	// 总产能 = 分配人数 × 班次标称工时
	totalWorkers := len(line.Allocations)
	totalHours := float64(totalWorkers) * shift.Hours()

	assignments, err := c.store.ListLineAssignments(ctx, workspaceID, lineID, date)
	if err != nil {
		return nil, errors.Database(err, "查找产线指派")
	}
	utilizationHours := model.SumAssignedHours(assignments)

	utilizationRate := 0.0
	if totalHours > 0 {
		utilizationRate = utilizationHours / totalHours * 100
	}

	return &LineCapacity{
		ProductionLineID: lineID,
		Date:             model.DateKey(date),
		Shift:            shift,
		TotalHours:       totalHours,
		AvailableHours:   totalHours - utilizationHours,
		UtilizationRate:  utilizationRate,
		WorkerCount:      totalWorkers,
		Efficiency:       line.Efficiency,
	}, nil
}

// WorkerCapacity 核算工人某日期/班次的产能
func (c *Calculator) WorkerCapacity(ctx context.Context, workspaceID, workerID uuid.UUID, date time.Time, shift model.Shift) (*WorkerCapacity, error) {
	if !shift.Valid() {
		return nil, errors.New(errors.CodeInvalidShift, "未知班次: "+string(shift))
	}

	worker, err := c.store.GetWorker(ctx, workspaceID, workerID)
	if err != nil {
		return nil, errors.Database(err, "查找工人")
	}
	if worker == nil {
		return nil, errors.WorkerNotFound(workerID.String())
	}

	dateKey := model.DateKey(date)
	profile := worker.Profile()

	alloc, err := c.store.GetAllocation(ctx, workspaceID, workerID, dateKey, shift)
	if err != nil {
		return nil, errors.Database(err, "查找工时分配")
	}

	// 无分配：当日/班次不可用，返回默认档案值
	if alloc == nil {
		return &WorkerCapacity{
			WorkerID:       workerID,
			Date:           dateKey,
			Shift:          shift,
			SkillLevel:     profile.SkillLevel,
			HourlyRate:     profile.HourlyRate,
			AvailableHours: 0,
			AssignedHours:  0,
			Efficiency:     profile.Efficiency,
			IsAvailable:    false,
		}, nil
	}

	assignments, err := c.store.ListWorkerAssignments(ctx, workspaceID, workerID, date)
	if err != nil {
		return nil, errors.Database(err, "查找工人指派")
	}
	assignedHours := model.SumAssignedHours(assignments)
	availableHours := alloc.HoursAllocated - assignedHours
	if availableHours < 0 {
		availableHours = 0
	}

	return &WorkerCapacity{
		WorkerID:       workerID,
		Date:           dateKey,
		Shift:          shift,
		SkillLevel:     alloc.SkillLevel,
		HourlyRate:     alloc.HourlyRate,
		AvailableHours: availableHours,
		AssignedHours:  assignedHours,
		Efficiency:     profile.Efficiency,
		IsAvailable:    availableHours > 0,
	}, nil
}
