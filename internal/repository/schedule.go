// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// ScheduleRepository 生产排程仓储
type ScheduleRepository struct {
	db          DB
	assignments *AssignmentRepository
}

// NewScheduleRepository 创建生产排程仓储
func NewScheduleRepository(db TxBeginner) *ScheduleRepository {
	return &ScheduleRepository{db: db, assignments: NewAssignmentRepository(db)}
}

// scheduleColumns 排程的查询列
const scheduleColumns = `
	id, workspace_id, production_line_id, order_number, status,
	planned_start, planned_end, actual_start, actual_end, completed_quantity,
	created_at, updated_at
`

// Create 创建生产排程
func (r *ScheduleRepository) Create(ctx context.Context, sched *model.ProductionSchedule) error {
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	now := time.Now()
	sched.CreatedAt = now
	sched.UpdatedAt = now
	if sched.Status == "" {
		sched.Status = model.StatusPlanned
	}

	query := `
		INSERT INTO production_schedules (
			id, workspace_id, production_line_id, order_number, status,
			planned_start, planned_end, actual_start, actual_end, completed_quantity,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		sched.ID, sched.WorkspaceID, sched.ProductionLineID, sched.OrderNumber, sched.Status,
		sched.PlannedStart, sched.PlannedEnd, sched.ActualStart, sched.ActualEnd,
		sched.CompletedQuantity, sched.CreatedAt, sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建生产排程失败: %w", err)
	}

	return nil
}

// GetByID 根据工作区和ID获取排程，不存在时返回 (nil, nil)
func (r *ScheduleRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*model.ProductionSchedule, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM production_schedules
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
	`, scheduleColumns)

	sched, err := r.scanSchedule(r.db.QueryRowContext(ctx, query, workspaceID, id))
	if err != nil || sched == nil {
		return sched, err
	}

	if err := r.loadAssociations(ctx, workspaceID, []*model.ProductionSchedule{sched}); err != nil {
		return nil, err
	}
	return sched, nil
}

// UpdateStatus 更新排程状态与实际时间
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, workspaceID, id uuid.UUID, status model.ScheduleStatus, actualStart, actualEnd *time.Time) error {
	query := `
		UPDATE production_schedules SET
			status = $3, actual_start = COALESCE($4, actual_start),
			actual_end = COALESCE($5, actual_end), updated_at = $6
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, status, actualStart, actualEnd, time.Now())
	if err != nil {
		return fmt.Errorf("更新排程状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排程不存在")
	}

	return nil
}

// ListByIDs 根据ID列表获取排程（含指派记录）
func (r *ScheduleRepository) ListByIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]*model.ProductionSchedule, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, workspaceID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM production_schedules
		WHERE workspace_id = $1 AND id IN (%s) AND deleted_at IS NULL
		ORDER BY planned_start
	`, scheduleColumns, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排程失败: %w", err)
	}
	defer rows.Close()

	schedules, err := r.collectSchedules(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, workspaceID, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// ListForDay 查找计划开始时间落在时间窗口内的排程（含指派与进度日志）
// lineID / workerID 为可选过滤条件；按工人过滤经由指派记录关联
func (r *ScheduleRepository) ListForDay(ctx context.Context, workspaceID uuid.UUID, day model.TimeRange, lineID, workerID *uuid.UUID) ([]*model.ProductionSchedule, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "s.deleted_at IS NULL")
	args = append(args, workspaceID, day.Start, day.End)
	conditions = append(conditions, "s.workspace_id = $1", "s.planned_start >= $2", "s.planned_start < $3")
	argIndex := 4

	if lineID != nil {
		conditions = append(conditions, fmt.Sprintf("s.production_line_id = $%d", argIndex))
		args = append(args, *lineID)
		argIndex++
	}

	if workerID != nil {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM worker_assignments a
			WHERE a.production_schedule_id = s.id AND a.worker_id = $%d
				AND a.deleted_at IS NULL
		)`, argIndex))
		args = append(args, *workerID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.workspace_id, s.production_line_id, s.order_number, s.status,
			s.planned_start, s.planned_end, s.actual_start, s.actual_end, s.completed_quantity,
			s.created_at, s.updated_at
		FROM production_schedules s
		WHERE %s
		ORDER BY s.planned_start
	`, strings.Join(conditions, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排程失败: %w", err)
	}
	defer rows.Close()

	schedules, err := r.collectSchedules(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, workspaceID, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// loadAssociations 批量加载排程的指派记录与进度日志
func (r *ScheduleRepository) loadAssociations(ctx context.Context, workspaceID uuid.UUID, schedules []*model.ProductionSchedule) error {
	if len(schedules) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(schedules))
	byID := make(map[uuid.UUID]*model.ProductionSchedule, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	assignments, err := r.assignments.ListBySchedules(ctx, workspaceID, ids)
	if err != nil {
		return err
	}
	for scheduleID, list := range assignments {
		if s, ok := byID[scheduleID]; ok {
			s.Assignments = list
		}
	}

	logs, err := r.listProgressLogs(ctx, workspaceID, ids)
	if err != nil {
		return err
	}
	for scheduleID, list := range logs {
		if s, ok := byID[scheduleID]; ok {
			s.ProgressLogs = list
		}
	}

	return nil
}

// listProgressLogs 查找一组排程的进度日志，按排程ID分组返回
func (r *ScheduleRepository) listProgressLogs(ctx context.Context, workspaceID uuid.UUID, scheduleIDs []uuid.UUID) (map[uuid.UUID][]*model.ProgressLog, error) {
	placeholders := make([]string, len(scheduleIDs))
	args := make([]interface{}, 0, len(scheduleIDs)+1)
	args = append(args, workspaceID)
	for i, id := range scheduleIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, production_schedule_id, logged_at,
			quality_score, quantity_rejected, notes, created_at, updated_at
		FROM progress_logs
		WHERE workspace_id = $1 AND production_schedule_id IN (%s)
			AND deleted_at IS NULL
		ORDER BY logged_at
	`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询进度日志失败: %w", err)
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]*model.ProgressLog)
	for rows.Next() {
		log := &model.ProgressLog{}
		err := rows.Scan(
			&log.ID, &log.WorkspaceID, &log.ProductionScheduleID, &log.LoggedAt,
			&log.QualityScore, &log.QuantityRejected, &log.Notes,
			&log.CreatedAt, &log.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描进度日志失败: %w", err)
		}
		grouped[log.ProductionScheduleID] = append(grouped[log.ProductionScheduleID], log)
	}

	return grouped, nil
}

// scanSchedule 扫描单行排程数据
func (r *ScheduleRepository) scanSchedule(row *sql.Row) (*model.ProductionSchedule, error) {
	sched := &model.ProductionSchedule{}

	err := row.Scan(
		&sched.ID, &sched.WorkspaceID, &sched.ProductionLineID, &sched.OrderNumber, &sched.Status,
		&sched.PlannedStart, &sched.PlannedEnd, &sched.ActualStart, &sched.ActualEnd,
		&sched.CompletedQuantity, &sched.CreatedAt, &sched.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排程数据失败: %w", err)
	}

	return sched, nil
}

// collectSchedules 扫描Rows中的全部排程数据
func (r *ScheduleRepository) collectSchedules(rows *sql.Rows) ([]*model.ProductionSchedule, error) {
	var schedules []*model.ProductionSchedule
	for rows.Next() {
		sched := &model.ProductionSchedule{}
		err := rows.Scan(
			&sched.ID, &sched.WorkspaceID, &sched.ProductionLineID, &sched.OrderNumber, &sched.Status,
			&sched.PlannedStart, &sched.PlannedEnd, &sched.ActualStart, &sched.ActualEnd,
			&sched.CompletedQuantity, &sched.CreatedAt, &sched.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描排程数据失败: %w", err)
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}
