// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// AllocationRepository 工时分配仓储
type AllocationRepository struct {
	db DB
}

// NewAllocationRepository 创建工时分配仓储
func NewAllocationRepository(db DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Create 创建工时分配
func (r *AllocationRepository) Create(ctx context.Context, alloc *model.WorkerAllocation) error {
	if alloc.ID == uuid.Nil {
		alloc.ID = uuid.New()
	}
	now := time.Now()
	alloc.CreatedAt = now
	alloc.UpdatedAt = now

	query := `
		INSERT INTO worker_allocations (
			id, workspace_id, worker_id, production_line_id, allocation_date,
			shift, hours_allocated, hourly_rate, skill_level, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		alloc.ID, alloc.WorkspaceID, alloc.WorkerID, alloc.ProductionLineID,
		alloc.AllocationDate, alloc.Shift, alloc.HoursAllocated,
		alloc.HourlyRate, alloc.SkillLevel, alloc.CreatedAt, alloc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建工时分配失败: %w", err)
	}

	return nil
}

// GetForShift 查找工人某日期/班次的工时分配，不存在时返回 (nil, nil)
func (r *AllocationRepository) GetForShift(ctx context.Context, workspaceID, workerID uuid.UUID, date string, shift model.Shift) (*model.WorkerAllocation, error) {
	query := `
		SELECT id, workspace_id, worker_id, production_line_id, allocation_date,
			shift, hours_allocated, hourly_rate, skill_level, created_at, updated_at
		FROM worker_allocations
		WHERE workspace_id = $1 AND worker_id = $2 AND allocation_date = $3 AND shift = $4
			AND deleted_at IS NULL
	`

	return r.scanAllocation(r.db.QueryRowContext(ctx, query, workspaceID, workerID, date, shift))
}

// ListByLine 查找产线某日期/班次的全部工时分配
func (r *AllocationRepository) ListByLine(ctx context.Context, workspaceID, lineID uuid.UUID, date string, shift model.Shift) ([]*model.WorkerAllocation, error) {
	query := `
		SELECT id, workspace_id, worker_id, production_line_id, allocation_date,
			shift, hours_allocated, hourly_rate, skill_level, created_at, updated_at
		FROM worker_allocations
		WHERE workspace_id = $1 AND production_line_id = $2 AND allocation_date = $3 AND shift = $4
			AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, lineID, date, shift)
	if err != nil {
		return nil, fmt.Errorf("查询工时分配失败: %w", err)
	}
	defer rows.Close()

	var allocations []*model.WorkerAllocation
	for rows.Next() {
		alloc, err := r.scanAllocationRow(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}

	return allocations, nil
}

// scanAllocation 扫描单行工时分配数据
func (r *AllocationRepository) scanAllocation(row *sql.Row) (*model.WorkerAllocation, error) {
	alloc := &model.WorkerAllocation{}

	err := row.Scan(
		&alloc.ID, &alloc.WorkspaceID, &alloc.WorkerID, &alloc.ProductionLineID,
		&alloc.AllocationDate, &alloc.Shift, &alloc.HoursAllocated,
		&alloc.HourlyRate, &alloc.SkillLevel, &alloc.CreatedAt, &alloc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描工时分配数据失败: %w", err)
	}

	return alloc, nil
}

// scanAllocationRow 扫描Rows中的工时分配数据
func (r *AllocationRepository) scanAllocationRow(rows *sql.Rows) (*model.WorkerAllocation, error) {
	alloc := &model.WorkerAllocation{}

	err := rows.Scan(
		&alloc.ID, &alloc.WorkspaceID, &alloc.WorkerID, &alloc.ProductionLineID,
		&alloc.AllocationDate, &alloc.Shift, &alloc.HoursAllocated,
		&alloc.HourlyRate, &alloc.SkillLevel, &alloc.CreatedAt, &alloc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描工时分配数据失败: %w", err)
	}

	return alloc, nil
}
