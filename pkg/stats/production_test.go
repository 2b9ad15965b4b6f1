package stats

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// fakeStore 内存假存储
type fakeStore struct {
	schedules []*model.ProductionSchedule
}

func (s *fakeStore) ListSchedulesForDay(_ context.Context, _ uuid.UUID, day model.TimeRange, lineID, workerID *uuid.UUID) ([]*model.ProductionSchedule, error) {
	var out []*model.ProductionSchedule
	for _, sc := range s.schedules {
		if !day.Contains(sc.PlannedStart) {
			continue
		}
		if lineID != nil && sc.ProductionLineID != *lineID {
			continue
		}
		if workerID != nil && sc.FirstAssignedWorker() != *workerID {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func ptr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestMetrics_AheadOfPlan(t *testing.T) {
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(8 * time.Hour)

	// 计划 8 小时，实际 4 小时完成
	actualEnd := start.Add(4 * time.Hour)
	sched := &model.ProductionSchedule{
		BaseModel:         model.NewBaseModel(),
		WorkspaceID:       ws,
		Status:            model.StatusCompleted,
		PlannedStart:      start,
		PlannedEnd:        start.Add(8 * time.Hour),
		ActualStart:       &start,
		ActualEnd:         &actualEnd,
		CompletedQuantity: 100,
	}

	agg := NewAggregator(&fakeStore{schedules: []*model.ProductionSchedule{sched}}, DefaultCostRates())
	m, err := agg.GenerateProductionMetrics(context.Background(), ws, date, nil, nil)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}

	if m.TotalOrders != 1 || m.CompletedOrders != 1 {
		t.Errorf("订单计数错误: total=%d completed=%d", m.TotalOrders, m.CompletedOrders)
	}
	if m.OnTimeDelivery != 100 {
		t.Errorf("提前完成应计入准时交付: %f", m.OnTimeDelivery)
	}
	// 效率 = 8/4 × 100 = 200，超前于计划
	if !almostEqual(m.Efficiency, 200) {
		t.Errorf("效率应为 200，得到 %f", m.Efficiency)
	}
	// 利用率钳制到 100
	if m.UtilizationRate != 100 {
		t.Errorf("利用率应钳制到 100，得到 %f", m.UtilizationRate)
	}
	// 产出 = 100 件 / 4 小时
	if !almostEqual(m.Throughput, 25) {
		t.Errorf("产出应为 25 件/小时，得到 %f", m.Throughput)
	}
	// 成本 = 4×150 人工 + 4×50 间接
	if !almostEqual(m.Cost.Labor, 600) || !almostEqual(m.Cost.Overhead, 200) {
		t.Errorf("成本拆分错误: labor=%f overhead=%f", m.Cost.Labor, m.Cost.Overhead)
	}
	if !almostEqual(m.Cost.Total, m.Cost.Labor+m.Cost.Material+m.Cost.Overhead) {
		t.Errorf("总成本应为三项之和，得到 %f", m.Cost.Total)
	}
}

func TestMetrics_EmptyDay(t *testing.T) {
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	agg := NewAggregator(&fakeStore{}, DefaultCostRates())
	m, err := agg.GenerateProductionMetrics(context.Background(), ws, date, nil, nil)
	if err != nil {
		t.Fatalf("空日期应正常返回: %v", err)
	}

	// 所有指标为 0，不得出现 NaN/Inf
	if m.TotalOrders != 0 || m.CompletedOrders != 0 {
		t.Errorf("订单计数应为 0: %+v", m)
	}
	for name, v := range map[string]float64{
		"on_time_delivery": m.OnTimeDelivery,
		"efficiency":       m.Efficiency,
		"utilization_rate": m.UtilizationRate,
		"quality_score":    m.QualityScore,
		"defect_rate":      m.DefectRate,
		"throughput":       m.Throughput,
		"cost_total":       m.Cost.Total,
	} {
		if v != 0 {
			t.Errorf("%s 应为 0，得到 %f", name, v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s 不应为 NaN/Inf", name)
		}
	}
	if m.Date != "2024-06-01" {
		t.Errorf("日期格式错误: %s", m.Date)
	}
}

func TestMetrics_QualityAndDefects(t *testing.T) {
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(8 * time.Hour)
	actualEnd := start.Add(8 * time.Hour)

	sched := &model.ProductionSchedule{
		BaseModel:         model.NewBaseModel(),
		WorkspaceID:       ws,
		Status:            model.StatusInProgress,
		PlannedStart:      start,
		PlannedEnd:        actualEnd,
		ActualStart:       &start,
		ActualEnd:         &actualEnd,
		CompletedQuantity: 200,
		ProgressLogs: []*model.ProgressLog{
			{QualityScore: ptr(90), QuantityRejected: 6},
			{QualityScore: ptr(80), QuantityRejected: 4},
			{QualityScore: nil, QuantityRejected: 0}, // 未评分的日志不参与均值
		},
	}

	agg := NewAggregator(&fakeStore{schedules: []*model.ProductionSchedule{sched}}, DefaultCostRates())
	m, err := agg.GenerateProductionMetrics(context.Background(), ws, date, nil, nil)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}

	if !almostEqual(m.QualityScore, 85) {
		t.Errorf("质量评分应为非空日志均值 85，得到 %f", m.QualityScore)
	}
	// 次品率 = 10 / 200 × 100
	if !almostEqual(m.DefectRate, 5) {
		t.Errorf("次品率应为 5%%，得到 %f", m.DefectRate)
	}
	if m.CompletedOrders != 0 {
		t.Errorf("进行中的排程不应计入完成数: %d", m.CompletedOrders)
	}
}

func TestMetrics_FilterByLineAndWorker(t *testing.T) {
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(8 * time.Hour)

	lineA, lineB := uuid.New(), uuid.New()
	workerA := uuid.New()

	mk := func(line uuid.UUID, worker uuid.UUID) *model.ProductionSchedule {
		sched := &model.ProductionSchedule{
			BaseModel:        model.NewBaseModel(),
			WorkspaceID:      ws,
			ProductionLineID: line,
			PlannedStart:     start,
			PlannedEnd:       start.Add(8 * time.Hour),
		}
		if worker != uuid.Nil {
			sched.Assignments = []*model.WorkerAssignment{
				{WorkerID: worker, AssignedDate: "2024-06-01", AssignedHours: 8},
			}
		}
		return sched
	}

	store := &fakeStore{schedules: []*model.ProductionSchedule{
		mk(lineA, workerA),
		mk(lineA, uuid.Nil),
		mk(lineB, uuid.Nil),
	}}
	agg := NewAggregator(store, DefaultCostRates())

	m, err := agg.GenerateProductionMetrics(context.Background(), ws, date, &lineA, nil)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if m.TotalOrders != 2 {
		t.Errorf("产线过滤后应有 2 个排程，得到 %d", m.TotalOrders)
	}

	m, err = agg.GenerateProductionMetrics(context.Background(), ws, date, nil, &workerA)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if m.TotalOrders != 1 {
		t.Errorf("工人过滤后应有 1 个排程，得到 %d", m.TotalOrders)
	}
	if m.WorkerID == nil || *m.WorkerID != workerA {
		t.Error("结果应回带过滤用的工人ID")
	}
}

func TestMetrics_NoActualHours(t *testing.T) {
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(8 * time.Hour)

	// 只有计划没有实际工时
	sched := &model.ProductionSchedule{
		BaseModel:    model.NewBaseModel(),
		WorkspaceID:  ws,
		Status:       model.StatusPlanned,
		PlannedStart: start,
		PlannedEnd:   start.Add(8 * time.Hour),
	}

	agg := NewAggregator(&fakeStore{schedules: []*model.ProductionSchedule{sched}}, DefaultCostRates())
	m, err := agg.GenerateProductionMetrics(context.Background(), ws, date, nil, nil)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}

	if m.Efficiency != 0 {
		t.Errorf("无实际工时效率应为 0，得到 %f", m.Efficiency)
	}
	if m.Throughput != 0 || m.Cost.Total != 0 {
		t.Errorf("无实际工时产出与成本应为 0: throughput=%f cost=%f", m.Throughput, m.Cost.Total)
	}
}
