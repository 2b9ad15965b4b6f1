// Package assign 提供工人任务指派匹配
package assign

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/logger"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/validator"
)

// 失败原因（对外契约，保持英文）
const (
	ReasonWorkerNotFound = "Worker not found"
	ReasonSkillTooLow    = "Insufficient skill level"
	ReasonNotAvailable   = "Worker not available at requested time"
)

// maxAlternatives 候选人上限
const maxAlternatives = 5

// Store 匹配器依赖的持久化原语
type Store interface {
	// GetWorker 按ID查找工人，不存在时返回 (nil, nil)
	GetWorker(ctx context.Context, workspaceID, workerID uuid.UUID) (*model.Worker, error)

	// ListActiveWorkers 查找工作区内在职工人（有限量）
	ListActiveWorkers(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*model.Worker, error)

	// CountAssignmentConflicts 统计时间窗口内该工人的既有指派数
	CountAssignmentConflicts(ctx context.Context, workspaceID, workerID uuid.UUID, window model.TimeRange) (int, error)

	// GetAllocation 查找工人某日期/班次的工时分配，不存在时返回 (nil, nil)
	GetAllocation(ctx context.Context, workspaceID, workerID uuid.UUID, date string, shift model.Shift) (*model.WorkerAllocation, error)

	// CreateAssignment 创建指派记录
	// 实现方负责以 (worker, date, shift) 为键串行化检查与写入
	CreateAssignment(ctx context.Context, assignment *model.WorkerAssignment) error
}

// Request 指派请求
type Request struct {
	WorkspaceID          uuid.UUID        `json:"workspace_id"`
	WorkerID             uuid.UUID        `json:"worker_id"`
	ProductionScheduleID uuid.UUID        `json:"production_schedule_id"`
	WorkStationID        *uuid.UUID       `json:"work_station_id,omitempty"`
	RequiredSkill        model.SkillLevel `json:"required_skill"`
	EstimatedHours       float64          `json:"estimated_hours"`
	PreferredStartTime   time.Time        `json:"preferred_start_time"`
	Shift                model.Shift      `json:"shift"`
	Priority             model.Priority   `json:"priority,omitempty"`
}

// Validate 校验请求参数
func (r *Request) Validate() error {
	if r.WorkspaceID == uuid.Nil {
		return errors.InvalidInput("workspace_id", "不能为空")
	}
	if r.WorkerID == uuid.Nil {
		return errors.InvalidInput("worker_id", "不能为空")
	}
	if r.ProductionScheduleID == uuid.Nil {
		return errors.InvalidInput("production_schedule_id", "不能为空")
	}
	if !r.RequiredSkill.Valid() {
		return errors.New(errors.CodeInvalidSkillLevel, "未知技能等级: "+string(r.RequiredSkill))
	}
	if r.Shift != "" && !r.Shift.Valid() {
		return errors.New(errors.CodeInvalidShift, "未知班次: "+string(r.Shift))
	}
	if r.EstimatedHours <= 0 {
		return errors.InvalidInput("estimated_hours", "必须为正数")
	}
	return nil
}

// shiftOrDefault 返回请求班次，缺省为早班
func (r *Request) shiftOrDefault() model.Shift {
	if r.Shift == "" {
		return model.ShiftMorning
	}
	return r.Shift
}

// Assignment 成功指派的摘要
type Assignment struct {
	ID                  uuid.UUID  `json:"id"`
	WorkerID            uuid.UUID  `json:"worker_id"`
	WorkerName          string     `json:"worker_name"`
	WorkStationID       *uuid.UUID `json:"work_station_id,omitempty"`
	ScheduledStart      time.Time  `json:"scheduled_start"`
	ScheduledEnd        time.Time  `json:"scheduled_end"`
	EstimatedEfficiency float64    `json:"estimated_efficiency"`
}

// Alternative 候选工人
type Alternative struct {
	WorkerID      uuid.UUID `json:"worker_id"`
	WorkerName    string    `json:"worker_name"`
	AvailableFrom time.Time `json:"available_from"`
	SkillMatch    float64   `json:"skill_match"` // 0-100%
	Efficiency    float64   `json:"efficiency"`
}

// Result 指派结果
// 业务性失败（工人不存在/技能不足/时间冲突）返回结构化结果而非错误
type Result struct {
	Success        bool          `json:"success"`
	Assignment     *Assignment   `json:"assignment,omitempty"`
	ConflictReason string        `json:"conflict_reason,omitempty"`
	Alternatives   []Alternative `json:"alternatives,omitempty"`
}

// Matcher 指派匹配器
// 无跨调用状态，可安全并发使用
type Matcher struct {
	store   Store
	checker *validator.Checker
	log     *logger.SchedulerLogger
}

// NewMatcher 创建指派匹配器
func NewMatcher(store Store) *Matcher {
	return &Matcher{
		store:   store,
		checker: validator.NewChecker(),
		log:     logger.NewSchedulerLogger(),
	}
}

// AssignWorkerToTask 将工人指派到生产任务
// 校验顺序：工人存在 → 技能匹配 → 时间可用 → 提交
// 提交只在全部检查通过后发生，被拒绝的请求不产生任何写入
func (m *Matcher) AssignWorkerToTask(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.log.AssignmentAttempt(req.WorkerID.String(), req.ProductionScheduleID.String(), req.EstimatedHours)

	// 工人存在性
	worker, err := m.store.GetWorker(ctx, req.WorkspaceID, req.WorkerID)
	if err != nil {
		return nil, errors.Database(err, "查找工人")
	}
	if worker == nil {
		m.log.AssignmentRejected(req.WorkerID.String(), ReasonWorkerNotFound)
		return &Result{Success: false, ConflictReason: ReasonWorkerNotFound}, nil
	}

	// 技能匹配：分配记录上的技能优先，其次取默认档案
	profile := worker.Profile()
	date := model.DateKey(req.PreferredStartTime)
	alloc, err := m.store.GetAllocation(ctx, req.WorkspaceID, req.WorkerID, date, req.shiftOrDefault())
	if err != nil {
		return nil, errors.Database(err, "查找工时分配")
	}
	workerSkill := profile.SkillLevel
	if alloc != nil && alloc.SkillLevel.Valid() {
		workerSkill = alloc.SkillLevel
	}

	if conflict := m.checker.CheckSkill(workerSkill, req.RequiredSkill); conflict != nil {
		m.log.AssignmentRejected(req.WorkerID.String(), ReasonSkillTooLow)
		alternatives, altErr := m.findAlternatives(ctx, req)
		if altErr != nil {
			return nil, altErr
		}
		return &Result{
			Success:        false,
			ConflictReason: ReasonSkillTooLow,
			Alternatives:   alternatives,
		}, nil
	}

	// 时间可用性：一天的指派窗口
	window := model.TimeRange{
		Start: req.PreferredStartTime,
		End:   req.PreferredStartTime.AddDate(0, 0, 1),
	}
	conflicts, err := m.store.CountAssignmentConflicts(ctx, req.WorkspaceID, req.WorkerID, window)
	if err != nil {
		return nil, errors.Database(err, "统计指派冲突")
	}
	if conflicts > 0 {
		m.log.AssignmentRejected(req.WorkerID.String(), ReasonNotAvailable)
		alternatives, altErr := m.findAlternatives(ctx, req)
		if altErr != nil {
			return nil, altErr
		}
		return &Result{
			Success:        false,
			ConflictReason: ReasonNotAvailable,
			Alternatives:   alternatives,
		}, nil
	}

	// 提交指派
	assignment := &model.WorkerAssignment{
		BaseModel:            model.NewBaseModel(),
		WorkspaceID:          req.WorkspaceID,
		ProductionScheduleID: req.ProductionScheduleID,
		WorkerID:             req.WorkerID,
		WorkStationID:        req.WorkStationID,
		AssignedDate:         date,
		AssignedHours:        req.EstimatedHours,
	}

	if err := m.store.CreateAssignment(ctx, assignment); err != nil {
		// 并发竞争下的串行化检查失败转为结构化拒绝
		if errors.Is(err, errors.CodeAssignmentConflict) || errors.Is(err, errors.CodeAllocationExceeded) {
			m.log.AssignmentRejected(req.WorkerID.String(), ReasonNotAvailable)
			alternatives, altErr := m.findAlternatives(ctx, req)
			if altErr != nil {
				return nil, altErr
			}
			return &Result{
				Success:        false,
				ConflictReason: ReasonNotAvailable,
				Alternatives:   alternatives,
			}, nil
		}
		return nil, errors.Database(err, "创建指派")
	}

	m.log.AssignmentCommitted(assignment.ID.String(), req.WorkerID.String(), req.EstimatedHours)

	// 按 8 小时工作日折算计划结束时间
	scheduledEnd := req.PreferredStartTime.Add(
		time.Duration(req.EstimatedHours / 8 * 24 * float64(time.Hour)))

	return &Result{
		Success: true,
		Assignment: &Assignment{
			ID:                  assignment.ID,
			WorkerID:            req.WorkerID,
			WorkerName:          worker.Name(),
			WorkStationID:       req.WorkStationID,
			ScheduledStart:      req.PreferredStartTime,
			ScheduledEnd:        scheduledEnd,
			EstimatedEfficiency: profile.Efficiency,
		},
	}, nil
}

// findAlternatives 查找候选工人
// 尽力建议列表：按技能匹配度降序，最多 maxAlternatives 个
func (m *Matcher) findAlternatives(ctx context.Context, req *Request) ([]Alternative, error) {
	workers, err := m.store.ListActiveWorkers(ctx, req.WorkspaceID, maxAlternatives*4)
	if err != nil {
		return nil, errors.Database(err, "查找候选工人")
	}

	alternatives := make([]Alternative, 0, len(workers))
	for _, w := range workers {
		if w.ID == req.WorkerID {
			continue
		}
		profile := w.Profile()
		alternatives = append(alternatives, Alternative{
			WorkerID:   w.ID,
			WorkerName: w.Name(),
			// 粗略估计：次日起可用
			AvailableFrom: req.PreferredStartTime.AddDate(0, 0, 1),
			SkillMatch:    model.SkillMatch(profile.SkillLevel, req.RequiredSkill) * 100,
			Efficiency:    profile.Efficiency,
		})
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].SkillMatch > alternatives[j].SkillMatch
	})

	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	return alternatives, nil
}
