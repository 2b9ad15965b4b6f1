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

// WorkerRepository 工人仓储
type WorkerRepository struct {
	db DB
}

// NewWorkerRepository 创建工人仓储
func NewWorkerRepository(db DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create 创建工人
func (r *WorkerRepository) Create(ctx context.Context, worker *model.Worker) error {
	if worker.ID == uuid.Nil {
		worker.ID = uuid.New()
	}
	now := time.Now()
	worker.CreatedAt = now
	worker.UpdatedAt = now

	query := `
		INSERT INTO workers (
			id, workspace_id, first_name, last_name, is_active, base_salary,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		worker.ID, worker.WorkspaceID, worker.FirstName, worker.LastName,
		worker.IsActive, worker.BaseSalary, worker.CreatedAt, worker.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建工人失败: %w", err)
	}

	return nil
}

// GetByID 根据工作区和ID获取工人，不存在时返回 (nil, nil)
func (r *WorkerRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*model.Worker, error) {
	query := `
		SELECT id, workspace_id, first_name, last_name, is_active, base_salary,
			created_at, updated_at
		FROM workers
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	return r.scanWorker(r.db.QueryRowContext(ctx, query, workspaceID, id))
}

// Update 更新工人
func (r *WorkerRepository) Update(ctx context.Context, worker *model.Worker) error {
	worker.UpdatedAt = time.Now()

	query := `
		UPDATE workers SET
			first_name = $3, last_name = $4, is_active = $5, base_salary = $6, updated_at = $7
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		worker.WorkspaceID, worker.ID, worker.FirstName, worker.LastName,
		worker.IsActive, worker.BaseSalary, worker.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新工人失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工人不存在")
	}

	return nil
}

// Delete 软删除工人
func (r *WorkerRepository) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	query := `UPDATE workers SET deleted_at = $3 WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, workspaceID, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除工人失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("工人不存在")
	}

	return nil
}

// List 查询工人列表
func (r *WorkerRepository) List(ctx context.Context, filter ListFilter) ([]*model.Worker, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.WorkspaceID != nil {
		conditions = append(conditions, fmt.Sprintf("workspace_id = $%d", argIndex))
		args = append(args, *filter.WorkspaceID)
		argIndex++
	}

	if filter.Status == "active" {
		conditions = append(conditions, "is_active = TRUE")
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	// 查询总数
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM workers WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, first_name, last_name, is_active, base_salary,
			created_at, updated_at
		FROM workers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var workers []*model.Worker
	for rows.Next() {
		worker, err := r.scanWorkerRow(rows)
		if err != nil {
			return nil, 0, err
		}
		workers = append(workers, worker)
	}

	return workers, total, nil
}

// ListActive 获取工作区内的在职工人（有限量）
func (r *WorkerRepository) ListActive(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*model.Worker, error) {
	if limit <= 0 {
		limit = 100
	}
	filter := DefaultListFilter().WithWorkspaceID(workspaceID).WithStatus("active").WithLimit(limit)
	workers, _, err := r.List(ctx, filter)
	return workers, err
}

// scanWorker 扫描单行工人数据
func (r *WorkerRepository) scanWorker(row *sql.Row) (*model.Worker, error) {
	worker := &model.Worker{}

	err := row.Scan(
		&worker.ID, &worker.WorkspaceID, &worker.FirstName, &worker.LastName,
		&worker.IsActive, &worker.BaseSalary, &worker.CreatedAt, &worker.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描工人数据失败: %w", err)
	}

	return worker, nil
}

// scanWorkerRow 扫描Rows中的工人数据
func (r *WorkerRepository) scanWorkerRow(rows *sql.Rows) (*model.Worker, error) {
	worker := &model.Worker{}

	err := rows.Scan(
		&worker.ID, &worker.WorkspaceID, &worker.FirstName, &worker.LastName,
		&worker.IsActive, &worker.BaseSalary, &worker.CreatedAt, &worker.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描工人数据失败: %w", err)
	}

	return worker, nil
}
