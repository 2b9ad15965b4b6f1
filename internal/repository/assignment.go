// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// AssignmentRepository 工作指派仓储
// 写入路径通过 Postgres 事务级咨询锁串行化同一 (工人, 日期) 的检查与插入，
// 保证并发指派不会产生双重占用
type AssignmentRepository struct {
	db TxBeginner
}

// NewAssignmentRepository 创建工作指派仓储
func NewAssignmentRepository(db TxBeginner) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// assignmentColumns 指派记录的查询列
const assignmentColumns = `
	id, workspace_id, production_schedule_id, worker_id, work_station_id,
	assigned_date, assigned_hours, created_at, updated_at
`

// CountConflicts 统计工人在时间窗口内的既有指派数
func (r *AssignmentRepository) CountConflicts(ctx context.Context, workspaceID, workerID uuid.UUID, window model.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM worker_assignments
		WHERE workspace_id = $1 AND worker_id = $2
			AND assigned_date >= $3 AND assigned_date < $4
			AND deleted_at IS NULL
	`

	var count int
	err := r.db.QueryRowContext(ctx, query,
		workspaceID, workerID, model.DateKey(window.Start), model.DateKey(window.End),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计指派冲突失败: %w", err)
	}

	return count, nil
}

// Create 创建指派记录
// 在事务内先对 (工人, 日期) 取咨询锁，再复查时间冲突与分配额度，全部通过才插入。
// 竞争失败以 CodeAssignmentConflict / CodeAllocationExceeded 返回
func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.WorkerAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	now := time.Now()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		// 以 工人ID:日期 为键的事务级咨询锁，事务结束自动释放
		lockKey := assignment.WorkerID.String() + ":" + assignment.AssignedDate
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("获取咨询锁失败: %w", err)
		}

		// 锁内复查时间冲突
		var conflicts int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM worker_assignments
			WHERE workspace_id = $1 AND worker_id = $2 AND assigned_date = $3
				AND deleted_at IS NULL
		`, assignment.WorkspaceID, assignment.WorkerID, assignment.AssignedDate).Scan(&conflicts)
		if err != nil {
			return fmt.Errorf("复查指派冲突失败: %w", err)
		}
		if conflicts > 0 {
			return errors.AssignmentConflict(assignment.WorkerID.String(), assignment.AssignedDate)
		}

		// 锁内复查分配额度（当日存在分配记录时才受额度约束）
		var allocated, assigned sql.NullFloat64
		err = tx.QueryRowContext(ctx, `
			SELECT
				(SELECT SUM(hours_allocated) FROM worker_allocations
					WHERE workspace_id = $1 AND worker_id = $2 AND allocation_date = $3
						AND deleted_at IS NULL),
				(SELECT SUM(assigned_hours) FROM worker_assignments
					WHERE workspace_id = $1 AND worker_id = $2 AND assigned_date = $3
						AND deleted_at IS NULL)
		`, assignment.WorkspaceID, assignment.WorkerID, assignment.AssignedDate).Scan(&allocated, &assigned)
		if err != nil {
			return fmt.Errorf("复查分配额度失败: %w", err)
		}
		if allocated.Valid {
			available := allocated.Float64 - assigned.Float64
			if assignment.AssignedHours > available {
				return errors.AllocationExceeded(
					assignment.WorkerID.String(), assignment.AssignedDate,
					assignment.AssignedHours, available)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO worker_assignments (
				id, workspace_id, production_schedule_id, worker_id, work_station_id,
				assigned_date, assigned_hours, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			assignment.ID, assignment.WorkspaceID, assignment.ProductionScheduleID,
			assignment.WorkerID, assignment.WorkStationID,
			assignment.AssignedDate, assignment.AssignedHours,
			assignment.CreatedAt, assignment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("创建指派失败: %w", err)
		}

		return nil
	})
}

// ListByLine 查找产线当日的全部指派（经由排程关联）
func (r *AssignmentRepository) ListByLine(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	query := `
		SELECT a.id, a.workspace_id, a.production_schedule_id, a.worker_id, a.work_station_id,
			a.assigned_date, a.assigned_hours, a.created_at, a.updated_at
		FROM worker_assignments a
		JOIN production_schedules s ON s.id = a.production_schedule_id
		WHERE a.workspace_id = $1 AND s.production_line_id = $2 AND a.assigned_date = $3
			AND a.deleted_at IS NULL AND s.deleted_at IS NULL
		ORDER BY a.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, lineID, model.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("查询产线指派失败: %w", err)
	}
	defer rows.Close()

	return r.collectAssignments(rows)
}

// ListByWorker 查找工人当日的全部指派
func (r *AssignmentRepository) ListByWorker(ctx context.Context, workspaceID, workerID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM worker_assignments
		WHERE workspace_id = $1 AND worker_id = $2 AND assigned_date = $3
			AND deleted_at IS NULL
		ORDER BY created_at
	`, assignmentColumns)

	rows, err := r.db.QueryContext(ctx, query, workspaceID, workerID, model.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("查询工人指派失败: %w", err)
	}
	defer rows.Close()

	return r.collectAssignments(rows)
}

// ListBySchedules 查找一组排程的全部指派，按排程ID分组返回
func (r *AssignmentRepository) ListBySchedules(ctx context.Context, workspaceID uuid.UUID, scheduleIDs []uuid.UUID) (map[uuid.UUID][]*model.WorkerAssignment, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(scheduleIDs))
	args := make([]interface{}, 0, len(scheduleIDs)+1)
	args = append(args, workspaceID)
	for i, id := range scheduleIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM worker_assignments
		WHERE workspace_id = $1 AND production_schedule_id IN (%s)
			AND deleted_at IS NULL
		ORDER BY created_at
	`, assignmentColumns, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排程指派失败: %w", err)
	}
	defer rows.Close()

	assignments, err := r.collectAssignments(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[uuid.UUID][]*model.WorkerAssignment)
	for _, a := range assignments {
		grouped[a.ProductionScheduleID] = append(grouped[a.ProductionScheduleID], a)
	}
	return grouped, nil
}

// collectAssignments 扫描Rows中的全部指派数据
func (r *AssignmentRepository) collectAssignments(rows *sql.Rows) ([]*model.WorkerAssignment, error) {
	var assignments []*model.WorkerAssignment
	for rows.Next() {
		a := &model.WorkerAssignment{}
		err := rows.Scan(
			&a.ID, &a.WorkspaceID, &a.ProductionScheduleID, &a.WorkerID, &a.WorkStationID,
			&a.AssignedDate, &a.AssignedHours, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描指派数据失败: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}
