// Package optimize 提供生产排程优化
package optimize

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

// Store 优化器依赖的持久化原语
type Store interface {
	// ListSchedulesByIDs 按ID集合查找生产排程（含指派记录）
	ListSchedulesByIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]*model.ProductionSchedule, error)

	// ListActiveWorkers 查找工作区内在职工人（有限量）
	ListActiveWorkers(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*model.Worker, error)
}

// Goals 优化目标
type Goals struct {
	MinimizeTime    bool `json:"minimize_time"`
	MinimizeCost    bool `json:"minimize_cost"`
	MaximizeQuality bool `json:"maximize_quality"`
	BalanceWorkload bool `json:"balance_workload"`
}

// DefaultGoals 默认优化目标
func DefaultGoals() Goals {
	return Goals{MinimizeTime: true}
}

// OriginalEntry 原始排程条目
type OriginalEntry struct {
	ScheduleID   uuid.UUID `json:"schedule_id"`
	PlannedStart time.Time `json:"planned_start"`
	PlannedEnd   time.Time `json:"planned_end"`
	WorkerID     uuid.UUID `json:"worker_id,omitempty"`
}

// OptimizedEntry 优化后排程条目
type OptimizedEntry struct {
	ScheduleID         uuid.UUID `json:"schedule_id"`
	OptimizedStart     time.Time `json:"optimized_start"`
	OptimizedEnd       time.Time `json:"optimized_end"`
	AssignedWorker     uuid.UUID `json:"assigned_worker"`
	ImprovementReasons []string  `json:"improvement_reasons"`
}

// Improvements 优化收益估计
type Improvements struct {
	TimeReduction      float64 `json:"time_reduction"`      // 节省小时数
	CostReduction      float64 `json:"cost_reduction"`      // 节省金额
	EfficiencyGain     float64 `json:"efficiency_gain"`     // 利用率提升（百分点）
	QualityImprovement float64 `json:"quality_improvement"` // 技能匹配提升（百分点）
}

// Result 优化结果
type Result struct {
	OriginalSchedule  []OriginalEntry  `json:"original_schedule"`
	OptimizedSchedule []OptimizedEntry `json:"optimized_schedule"`
	Improvements      Improvements     `json:"improvements"`
}

// 目标权重
type weights struct {
	skill float64
	load  float64
	cost  float64
}

// weightsFor 按优化目标调整评分权重
func weightsFor(goals Goals) weights {
	w := weights{skill: 0.4, load: 0.35, cost: 0.25}

	if goals.MinimizeCost {
		w.cost += 0.3
	}
	if goals.MaximizeQuality {
		w.skill += 0.3
	}
	if goals.MinimizeTime || goals.BalanceWorkload {
		w.load += 0.3
	}

	total := w.skill + w.load + w.cost
	w.skill /= total
	w.load /= total
	w.cost /= total
	return w
}

// Optimizer 排程优化器
// 贪心重指派：按计划开始时间顺序，为每个排程挑选综合评分最高的工人，
// 并把计划窗口压缩到已承诺的工作内容，以消除空闲工时
type Optimizer struct {
	store   Store
	checker *validator.Checker
	log     *logger.SchedulerLogger
}

// NewOptimizer 创建排程优化器
func NewOptimizer(store Store) *Optimizer {
	return &Optimizer{
		store:   store,
		checker: validator.NewChecker(),
		log:     logger.NewSchedulerLogger(),
	}
}

// workerLimit 参与优化的工人数量上限
const workerLimit = 200

// OptimizeSchedules 优化一组生产排程
func (o *Optimizer) OptimizeSchedules(ctx context.Context, workspaceID uuid.UUID, scheduleIDs []uuid.UUID, goals Goals) (*Result, error) {
	start := time.Now()

	if len(scheduleIDs) == 0 {
		return nil, errors.InvalidInput("schedule_ids", "不能为空")
	}

	schedules, err := o.store.ListSchedulesByIDs(ctx, workspaceID, scheduleIDs)
	if err != nil {
		return nil, errors.Database(err, "查找生产排程")
	}

	workers, err := o.store.ListActiveWorkers(ctx, workspaceID, workerLimit)
	if err != nil {
		return nil, errors.Database(err, "查找在职工人")
	}

	// 按计划开始时间顺序处理
	sorted := make([]*model.ProductionSchedule, len(schedules))
	copy(sorted, schedules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PlannedStart.Before(sorted[j].PlannedStart)
	})

	workerByID := make(map[uuid.UUID]*model.Worker, len(workers))
	maxRate := 0.0
	for _, w := range workers {
		workerByID[w.ID] = w
		if w.BaseSalary > maxRate {
			maxRate = w.BaseSalary
		}
	}

	wts := weightsFor(goals)
	committed := make(map[uuid.UUID]float64)  // 本次方案内各工人累计工时
	busyUntil := make(map[uuid.UUID]time.Time)

	result := &Result{
		OriginalSchedule:  make([]OriginalEntry, 0, len(sorted)),
		OptimizedSchedule: make([]OptimizedEntry, 0, len(sorted)),
	}
	var planEntries []validator.PlanEntry
	var utilBefore, utilAfter, qualityDelta float64

	for _, sched := range sorted {
		origWorker := sched.FirstAssignedWorker()
		result.OriginalSchedule = append(result.OriginalSchedule, OriginalEntry{
			ScheduleID:   sched.ID,
			PlannedStart: sched.PlannedStart,
			PlannedEnd:   sched.PlannedEnd,
			WorkerID:     origWorker,
		})

		// 工作内容 = 已承诺指派工时，无指派时回退到计划工时
		contentHours := model.SumAssignedHours(sched.Assignments)
		if contentHours <= 0 {
			contentHours = sched.PlannedHours()
		}

		chosen := o.pickWorker(workers, sched, contentHours, committed, busyUntil, maxRate, wts)
		if chosen == uuid.Nil {
			chosen = origWorker
		}

		optStart := sched.PlannedStart
		if until, ok := busyUntil[chosen]; ok && until.After(optStart) {
			optStart = until
		}
		// 结束时间由工作内容决定；开始被推迟或内容超出窗口时可能晚于原计划，
		// 此时该排程不计节省
		optEnd := optStart.Add(time.Duration(contentHours * float64(time.Hour)))

		var reasons []string
		if chosen != uuid.Nil && chosen != origWorker {
			reasons = append(reasons, "Optimized worker assignment")
		}
		if optEnd.Before(sched.PlannedEnd) {
			reasons = append(reasons, "Reduced idle time")
		}
		if goals.BalanceWorkload {
			reasons = append(reasons, "Balanced workload across workers")
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "No improvement found")
		}

		result.OptimizedSchedule = append(result.OptimizedSchedule, OptimizedEntry{
			ScheduleID:         sched.ID,
			OptimizedStart:     optStart,
			OptimizedEnd:       optEnd,
			AssignedWorker:     chosen,
			ImprovementReasons: reasons,
		})

		if chosen != uuid.Nil {
			committed[chosen] += contentHours
			busyUntil[chosen] = optEnd
			planEntries = append(planEntries, validator.PlanEntry{
				ScheduleID: sched.ID,
				WorkerID:   chosen,
				Window:     model.TimeRange{Start: optStart, End: optEnd},
			})
		}

		// 收益核算
		plannedWindow := sched.PlannedHours()
		optimizedWindow := optEnd.Sub(optStart).Hours()
		result.Improvements.TimeReduction += positive(sched.PlannedEnd.Sub(optEnd).Hours())
		result.Improvements.CostReduction += o.costDelta(workerByID, origWorker, chosen, contentHours)

		if plannedWindow > 0 {
			utilBefore += clampRatio(contentHours / plannedWindow)
		}
		if optimizedWindow > 0 {
			utilAfter += clampRatio(contentHours / optimizedWindow)
		}
		qualityDelta += o.skillDelta(workerByID, origWorker, chosen)
	}

	n := float64(len(sorted))
	if n > 0 {
		result.Improvements.EfficiencyGain = (utilAfter - utilBefore) / n * 100
		result.Improvements.QualityImprovement = qualityDelta / n * 100
	}

	// 方案内部不应引入同一工人的时间重叠
	if conflicts := o.checker.CheckPlan(planEntries); len(conflicts) > 0 {
		logger.Warn().Int("conflicts", len(conflicts)).Msg("优化方案存在内部冲突")
	}

	o.log.OptimizationComplete(len(sorted), time.Since(start), result.Improvements.TimeReduction)
	return result, nil
}

// pickWorker 为排程挑选综合评分最高的工人
// 评分 = 技能匹配 × w1 + 负载均衡 × w2 + 成本 × w3
func (o *Optimizer) pickWorker(
	workers []*model.Worker,
	sched *model.ProductionSchedule,
	contentHours float64,
	committed map[uuid.UUID]float64,
	busyUntil map[uuid.UUID]time.Time,
	maxRate float64,
	wts weights,
) uuid.UUID {
	best := uuid.Nil
	bestScore := -1.0

	for _, w := range workers {
		profile := w.Profile()

		skillScore := model.SkillMatch(profile.SkillLevel, model.DefaultSkillLevel)
		loadScore := 1.0 / (1.0 + committed[w.ID]/8.0)
		costScore := 1.0
		if maxRate > 0 {
			costScore = 1.0 - w.BaseSalary/maxRate
		}

		score := skillScore*wts.skill + loadScore*wts.load + costScore*wts.cost

		// 已占用的工人会推迟排程开始，按推迟时长扣分
		if until, ok := busyUntil[w.ID]; ok && until.After(sched.PlannedStart) {
			delay := until.Sub(sched.PlannedStart).Hours()
			score -= delay / (delay + 8.0)
		}

		if score > bestScore {
			bestScore = score
			best = w.ID
		}
	}

	return best
}

// costDelta 重指派带来的成本变化（正数为节省）
func (o *Optimizer) costDelta(workers map[uuid.UUID]*model.Worker, origID, newID uuid.UUID, hours float64) float64 {
	if origID == uuid.Nil || newID == uuid.Nil || origID == newID {
		return 0
	}
	orig, ok1 := workers[origID]
	repl, ok2 := workers[newID]
	if !ok1 || !ok2 {
		return 0
	}
	return (orig.BaseSalary - repl.BaseSalary) * hours
}

// skillDelta 重指派带来的技能匹配变化
func (o *Optimizer) skillDelta(workers map[uuid.UUID]*model.Worker, origID, newID uuid.UUID) float64 {
	if newID == uuid.Nil {
		return 0
	}
	newMatch := model.SkillMatch(model.DefaultSkillLevel, model.DefaultSkillLevel)
	if w, ok := workers[newID]; ok {
		newMatch = model.SkillMatch(w.Profile().SkillLevel, model.DefaultSkillLevel)
	}
	origMatch := 0.0
	if origID != uuid.Nil {
		origMatch = model.SkillMatch(model.DefaultSkillLevel, model.DefaultSkillLevel)
		if w, ok := workers[origID]; ok {
			origMatch = model.SkillMatch(w.Profile().SkillLevel, model.DefaultSkillLevel)
		}
	}
	return newMatch - origMatch
}

// positive 负数归零
func positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// clampRatio 比率钳制到 [0,1]
func clampRatio(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
