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

// LineRepository 产线仓储
type LineRepository struct {
	db          DB
	allocations *AllocationRepository
}

// NewLineRepository 创建产线仓储
func NewLineRepository(db DB) *LineRepository {
	return &LineRepository{db: db, allocations: NewAllocationRepository(db)}
}

// Create 创建产线
func (r *LineRepository) Create(ctx context.Context, line *model.ProductionLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	now := time.Now()
	line.CreatedAt = now
	line.UpdatedAt = now

	query := `
		INSERT INTO production_lines (
			id, workspace_id, name, efficiency, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		line.ID, line.WorkspaceID, line.Name, line.Efficiency,
		line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建产线失败: %w", err)
	}

	return nil
}

// GetByID 根据工作区和ID获取产线，不存在时返回 (nil, nil)
func (r *LineRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*model.ProductionLine, error) {
	query := `
		SELECT id, workspace_id, name, efficiency, created_at, updated_at
		FROM production_lines
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	return r.scanLine(r.db.QueryRowContext(ctx, query, workspaceID, id))
}

// GetForShift 获取产线及其某日期/班次的工时分配与在用工位
// 产线不存在时返回 (nil, nil)
func (r *LineRepository) GetForShift(ctx context.Context, workspaceID, lineID uuid.UUID, date time.Time, shift model.Shift) (*model.ProductionLine, error) {
	line, err := r.GetByID(ctx, workspaceID, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, nil
	}

	allocations, err := r.allocations.ListByLine(ctx, workspaceID, lineID, model.DateKey(date), shift)
	if err != nil {
		return nil, err
	}
	line.Allocations = allocations

	stations, err := r.listActiveStations(ctx, workspaceID, lineID)
	if err != nil {
		return nil, err
	}
	line.WorkStations = stations

	return line, nil
}

// List 查询产线列表
func (r *LineRepository) List(ctx context.Context, filter ListFilter) ([]*model.ProductionLine, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.WorkspaceID != nil {
		conditions = append(conditions, fmt.Sprintf("workspace_id = $%d", argIndex))
		args = append(args, *filter.WorkspaceID)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM production_lines WHERE %s", whereClause)
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
		SELECT id, workspace_id, name, efficiency, created_at, updated_at
		FROM production_lines
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

	var lines []*model.ProductionLine
	for rows.Next() {
		line, err := r.scanLineRow(rows)
		if err != nil {
			return nil, 0, err
		}
		lines = append(lines, line)
	}

	return lines, total, nil
}

// listActiveStations 查找产线的在用工位
func (r *LineRepository) listActiveStations(ctx context.Context, workspaceID, lineID uuid.UUID) ([]*model.WorkStation, error) {
	query := `
		SELECT id, workspace_id, production_line_id, name, station_type, is_active,
			created_at, updated_at
		FROM work_stations
		WHERE workspace_id = $1 AND production_line_id = $2 AND is_active = TRUE
			AND deleted_at IS NULL
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, workspaceID, lineID)
	if err != nil {
		return nil, fmt.Errorf("查询工位失败: %w", err)
	}
	defer rows.Close()

	var stations []*model.WorkStation
	for rows.Next() {
		st := &model.WorkStation{}
		err := rows.Scan(
			&st.ID, &st.WorkspaceID, &st.ProductionLineID, &st.Name,
			&st.StationType, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描工位数据失败: %w", err)
		}
		stations = append(stations, st)
	}

	return stations, nil
}

// scanLine 扫描单行产线数据
func (r *LineRepository) scanLine(row *sql.Row) (*model.ProductionLine, error) {
	line := &model.ProductionLine{}

	err := row.Scan(
		&line.ID, &line.WorkspaceID, &line.Name, &line.Efficiency,
		&line.CreatedAt, &line.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描产线数据失败: %w", err)
	}

	return line, nil
}

// scanLineRow 扫描Rows中的产线数据
func (r *LineRepository) scanLineRow(rows *sql.Rows) (*model.ProductionLine, error) {
	line := &model.ProductionLine{}

	err := rows.Scan(
		&line.ID, &line.WorkspaceID, &line.Name, &line.Efficiency,
		&line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描产线数据失败: %w", err)
	}

	return line, nil
}
