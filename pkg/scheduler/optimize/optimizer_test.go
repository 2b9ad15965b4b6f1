package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// fakeStore 内存假存储
type fakeStore struct {
	schedules []*model.ProductionSchedule
	workers   []*model.Worker
}

func (s *fakeStore) ListSchedulesByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]*model.ProductionSchedule, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.ProductionSchedule
	for _, sc := range s.schedules {
		if want[sc.ID] {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveWorkers(_ context.Context, _ uuid.UUID, _ int) ([]*model.Worker, error) {
	return s.workers, nil
}

func newSchedule(start time.Time, windowHours, contentHours float64) *model.ProductionSchedule {
	sched := &model.ProductionSchedule{
		BaseModel:    model.NewBaseModel(),
		PlannedStart: start,
		PlannedEnd:   start.Add(time.Duration(windowHours * float64(time.Hour))),
	}
	if contentHours > 0 {
		sched.Assignments = []*model.WorkerAssignment{
			{WorkerID: uuid.New(), AssignedDate: model.DateKey(start), AssignedHours: contentHours},
		}
	}
	return sched
}

func TestOptimize_IdleTimeCompaction(t *testing.T) {
	ws := uuid.New()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	// 24 小时计划窗口内只有 8 小时工作内容
	sched := newSchedule(start, 24, 8)
	worker := &model.Worker{BaseModel: model.NewBaseModel(), FirstName: "W", IsActive: true, BaseSalary: 100}

	store := &fakeStore{schedules: []*model.ProductionSchedule{sched}, workers: []*model.Worker{worker}}
	opt := NewOptimizer(store)

	result, err := opt.OptimizeSchedules(context.Background(), ws, []uuid.UUID{sched.ID}, DefaultGoals())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	if len(result.OriginalSchedule) != 1 || len(result.OptimizedSchedule) != 1 {
		t.Fatalf("结果条目数错误: %d/%d", len(result.OriginalSchedule), len(result.OptimizedSchedule))
	}

	entry := result.OptimizedSchedule[0]
	if !entry.OptimizedStart.Equal(start) {
		t.Errorf("优化开始时间应保持计划开始: %v", entry.OptimizedStart)
	}
	wantEnd := start.Add(8 * time.Hour)
	if !entry.OptimizedEnd.Equal(wantEnd) {
		t.Errorf("优化结束时间应压缩到工作内容: want %v, got %v", wantEnd, entry.OptimizedEnd)
	}
	// 节省 = 24 - 8 = 16 小时
	if result.Improvements.TimeReduction != 16 {
		t.Errorf("节省工时应为 16，得到 %f", result.Improvements.TimeReduction)
	}
	if result.Improvements.EfficiencyGain <= 0 {
		t.Errorf("压缩空闲后利用率应提升，得到 %f", result.Improvements.EfficiencyGain)
	}
}

func TestOptimize_ContractShape(t *testing.T) {
	ws := uuid.New()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	s1 := newSchedule(start, 8, 8)
	s2 := newSchedule(start.Add(24*time.Hour), 8, 8)
	worker := &model.Worker{BaseModel: model.NewBaseModel(), FirstName: "W", IsActive: true}

	store := &fakeStore{schedules: []*model.ProductionSchedule{s2, s1}, workers: []*model.Worker{worker}}
	opt := NewOptimizer(store)

	result, err := opt.OptimizeSchedules(context.Background(), ws, []uuid.UUID{s1.ID, s2.ID}, DefaultGoals())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	if len(result.OriginalSchedule) != 2 {
		t.Fatalf("原始条目应为 2，得到 %d", len(result.OriginalSchedule))
	}
	// 按计划开始时间排序
	if !result.OriginalSchedule[0].PlannedStart.Before(result.OriginalSchedule[1].PlannedStart) {
		t.Error("条目应按计划开始时间排序")
	}
	for _, e := range result.OptimizedSchedule {
		if len(e.ImprovementReasons) == 0 {
			t.Error("每个优化条目应携带改进说明")
		}
		if e.OptimizedEnd.Before(e.OptimizedStart) {
			t.Error("优化结束时间不应早于开始时间")
		}
	}
}

func TestOptimize_CostReduction(t *testing.T) {
	ws := uuid.New()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	expensive := &model.Worker{BaseModel: model.NewBaseModel(), FirstName: "贵", IsActive: true, BaseSalary: 300}
	cheap := &model.Worker{BaseModel: model.NewBaseModel(), FirstName: "平", IsActive: true, BaseSalary: 100}

	sched := &model.ProductionSchedule{
		BaseModel:    model.NewBaseModel(),
		PlannedStart: start,
		PlannedEnd:   start.Add(8 * time.Hour),
		Assignments: []*model.WorkerAssignment{
			{WorkerID: expensive.ID, AssignedDate: "2024-06-01", AssignedHours: 8},
		},
	}

	store := &fakeStore{
		schedules: []*model.ProductionSchedule{sched},
		workers:   []*model.Worker{expensive, cheap},
	}
	opt := NewOptimizer(store)

	result, err := opt.OptimizeSchedules(context.Background(), ws, []uuid.UUID{sched.ID},
		Goals{MinimizeCost: true})
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	entry := result.OptimizedSchedule[0]
	if entry.AssignedWorker != cheap.ID {
		t.Errorf("成本目标下应改派低时薪工人，得到 %s", entry.AssignedWorker)
	}
	// (300 - 100) × 8 小时
	if result.Improvements.CostReduction != 1600 {
		t.Errorf("成本节省应为 1600，得到 %f", result.Improvements.CostReduction)
	}
}

func TestOptimize_NoWorkersFallsBack(t *testing.T) {
	ws := uuid.New()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	origWorker := uuid.New()
	sched := &model.ProductionSchedule{
		BaseModel:    model.NewBaseModel(),
		PlannedStart: start,
		PlannedEnd:   start.Add(8 * time.Hour),
		Assignments: []*model.WorkerAssignment{
			{WorkerID: origWorker, AssignedDate: "2024-06-01", AssignedHours: 8},
		},
	}

	store := &fakeStore{schedules: []*model.ProductionSchedule{sched}}
	opt := NewOptimizer(store)

	result, err := opt.OptimizeSchedules(context.Background(), ws, []uuid.UUID{sched.ID}, DefaultGoals())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}
	if result.OptimizedSchedule[0].AssignedWorker != origWorker {
		t.Error("无可用工人时应回退到原指派工人")
	}
}

func TestOptimize_SameWorkerSchedulesDoNotOverlap(t *testing.T) {
	ws := uuid.New()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	// 两个同时开始的排程，只有一个工人
	s1 := newSchedule(start, 8, 8)
	s2 := newSchedule(start, 8, 8)
	worker := &model.Worker{BaseModel: model.NewBaseModel(), FirstName: "独", IsActive: true}

	store := &fakeStore{schedules: []*model.ProductionSchedule{s1, s2}, workers: []*model.Worker{worker}}
	opt := NewOptimizer(store)

	result, err := opt.OptimizeSchedules(context.Background(), ws, []uuid.UUID{s1.ID, s2.ID}, DefaultGoals())
	if err != nil {
		t.Fatalf("优化失败: %v", err)
	}

	e1, e2 := result.OptimizedSchedule[0], result.OptimizedSchedule[1]
	if e1.AssignedWorker == e2.AssignedWorker {
		w1 := model.TimeRange{Start: e1.OptimizedStart, End: e1.OptimizedEnd}
		w2 := model.TimeRange{Start: e2.OptimizedStart, End: e2.OptimizedEnd}
		if w1.Overlaps(w2) && w1.Duration() > 0 && w2.Duration() > 0 {
			t.Error("同一工人的优化排程不应时间重叠")
		}
	}
}

func TestOptimize_EmptyIDs(t *testing.T) {
	opt := NewOptimizer(&fakeStore{})
	if _, err := opt.OptimizeSchedules(context.Background(), uuid.New(), nil, DefaultGoals()); err == nil {
		t.Error("空ID列表应返回错误")
	}
}

func TestWeightsNormalized(t *testing.T) {
	cases := []Goals{
		{},
		DefaultGoals(),
		{MinimizeCost: true},
		{MaximizeQuality: true, BalanceWorkload: true},
	}
	for _, goals := range cases {
		w := weightsFor(goals)
		total := w.skill + w.load + w.cost
		if total < 0.999 || total > 1.001 {
			t.Errorf("权重应归一化，goals=%+v total=%f", goals, total)
		}
	}
}
