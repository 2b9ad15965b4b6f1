package capacity

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// fakeStore 内存假存储
type fakeStore struct {
	lines           map[uuid.UUID]*model.ProductionLine
	workers         map[uuid.UUID]*model.Worker
	allocations     map[string]*model.WorkerAllocation
	lineAssignments map[string][]*model.WorkerAssignment // key: lineID|date
	workerAssigns   map[string][]*model.WorkerAssignment // key: workerID|date
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lines:           make(map[uuid.UUID]*model.ProductionLine),
		workers:         make(map[uuid.UUID]*model.Worker),
		allocations:     make(map[string]*model.WorkerAllocation),
		lineAssignments: make(map[string][]*model.WorkerAssignment),
		workerAssigns:   make(map[string][]*model.WorkerAssignment),
	}
}

func (s *fakeStore) GetLineForShift(_ context.Context, _, lineID uuid.UUID, _ time.Time, _ model.Shift) (*model.ProductionLine, error) {
	return s.lines[lineID], nil
}

func (s *fakeStore) ListLineAssignments(_ context.Context, _, lineID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	return s.lineAssignments[lineID.String()+"|"+model.DateKey(date)], nil
}

func (s *fakeStore) GetWorker(_ context.Context, _, workerID uuid.UUID) (*model.Worker, error) {
	return s.workers[workerID], nil
}

func (s *fakeStore) GetAllocation(_ context.Context, _, workerID uuid.UUID, date string, shift model.Shift) (*model.WorkerAllocation, error) {
	return s.allocations[workerID.String()+"|"+date+"|"+string(shift)], nil
}

func (s *fakeStore) ListWorkerAssignments(_ context.Context, _, workerID uuid.UUID, date time.Time) ([]*model.WorkerAssignment, error) {
	return s.workerAssigns[workerID.String()+"|"+model.DateKey(date)], nil
}

// 场景C：3 份分配（24 小时总量），10 小时已指派 → 利用率 41.67%
func TestLineCapacity(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	line := &model.ProductionLine{
		BaseModel:   model.NewBaseModel(),
		WorkspaceID: ws,
		Name:        "L1",
		Efficiency:  0.9,
		Allocations: []*model.WorkerAllocation{
			{HoursAllocated: 8}, {HoursAllocated: 8}, {HoursAllocated: 8},
		},
	}
	store.lines[line.ID] = line
	store.lineAssignments[line.ID.String()+"|2024-06-01"] = []*model.WorkerAssignment{
		{AssignedHours: 6},
		{AssignedHours: 4},
	}

	calc := NewCalculator(store)
	cap, err := calc.LineCapacity(context.Background(), ws, line.ID, date, model.ShiftMorning)
	if err != nil {
		t.Fatalf("核算失败: %v", err)
	}

	if cap.TotalHours != 24 {
		t.Errorf("总工时应为 24，得到 %f", cap.TotalHours)
	}
	if cap.AvailableHours != 14 {
		t.Errorf("剩余工时应为 14，得到 %f", cap.AvailableHours)
	}
	if math.Abs(cap.UtilizationRate-41.666666) > 0.01 {
		t.Errorf("利用率应为 41.67，得到 %f", cap.UtilizationRate)
	}
	if cap.WorkerCount != 3 {
		t.Errorf("工人数应为 3，得到 %d", cap.WorkerCount)
	}
}

func TestLineCapacity_NotFound(t *testing.T) {
	calc := NewCalculator(newFakeStore())
	_, err := calc.LineCapacity(context.Background(), uuid.New(), uuid.New(), time.Now(), model.ShiftMorning)
	if !apperrors.Is(err, apperrors.CodeLineNotFound) {
		t.Errorf("不存在的产线应返回 LineNotFound，得到 %v", err)
	}
}

// P2：零分配时利用率为 0 而非 NaN
func TestLineCapacity_ZeroAllocations(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()
	line := &model.ProductionLine{BaseModel: model.NewBaseModel(), WorkspaceID: ws}
	store.lines[line.ID] = line

	calc := NewCalculator(store)
	cap, err := calc.LineCapacity(context.Background(), ws, line.ID, time.Now(), model.ShiftNight)
	if err != nil {
		t.Fatalf("核算失败: %v", err)
	}
	if cap.TotalHours != 0 || cap.UtilizationRate != 0 {
		t.Errorf("零分配应返回 0 利用率，得到 total=%f rate=%f", cap.TotalHours, cap.UtilizationRate)
	}
	if math.IsNaN(cap.UtilizationRate) || math.IsInf(cap.UtilizationRate, 0) {
		t.Error("利用率不应为 NaN/Inf")
	}
}

func TestLineCapacity_InvalidShift(t *testing.T) {
	calc := NewCalculator(newFakeStore())
	_, err := calc.LineCapacity(context.Background(), uuid.New(), uuid.New(), time.Now(), "SWING")
	if !apperrors.Is(err, apperrors.CodeInvalidShift) {
		t.Errorf("未知班次应返回校验错误，得到 %v", err)
	}
}

// P4：分配 H 小时、已指派 A 小时 → 剩余 H-A
func TestWorkerCapacity(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	worker := &model.Worker{BaseModel: model.NewBaseModel(), WorkspaceID: ws, FirstName: "W", BaseSalary: 120}
	store.workers[worker.ID] = worker

	store.allocations[worker.ID.String()+"|2024-06-01|MORNING"] = &model.WorkerAllocation{
		WorkerID:       worker.ID,
		AllocationDate: "2024-06-01",
		Shift:          model.ShiftMorning,
		HoursAllocated: 8,
		HourlyRate:     150,
		SkillLevel:     model.SkillAdvanced,
	}
	store.workerAssigns[worker.ID.String()+"|2024-06-01"] = []*model.WorkerAssignment{
		{WorkerID: worker.ID, AssignedDate: "2024-06-01", AssignedHours: 3},
		{WorkerID: worker.ID, AssignedDate: "2024-06-01", AssignedHours: 2},
	}

	calc := NewCalculator(store)
	cap, err := calc.WorkerCapacity(context.Background(), ws, worker.ID, date, model.ShiftMorning)
	if err != nil {
		t.Fatalf("核算失败: %v", err)
	}

	if cap.AssignedHours != 5 {
		t.Errorf("已指派工时应为 5，得到 %f", cap.AssignedHours)
	}
	if cap.AvailableHours != 3 {
		t.Errorf("剩余工时应为 3，得到 %f", cap.AvailableHours)
	}
	if !cap.IsAvailable {
		t.Error("剩余工时 > 0 应判定为可用")
	}
	if cap.SkillLevel != model.SkillAdvanced {
		t.Errorf("技能等级应取分配记录的值，得到 %s", cap.SkillLevel)
	}
	if cap.HourlyRate != 150 {
		t.Errorf("时薪应取分配记录的值，得到 %f", cap.HourlyRate)
	}
}

func TestWorkerCapacity_NoAllocation(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()
	worker := &model.Worker{BaseModel: model.NewBaseModel(), WorkspaceID: ws, FirstName: "W", BaseSalary: 100}
	store.workers[worker.ID] = worker

	calc := NewCalculator(store)
	cap, err := calc.WorkerCapacity(context.Background(), ws, worker.ID, time.Now(), model.ShiftNight)
	if err != nil {
		t.Fatalf("核算失败: %v", err)
	}

	if cap.IsAvailable {
		t.Error("无分配应判定为不可用")
	}
	if cap.AvailableHours != 0 || cap.AssignedHours != 0 {
		t.Error("无分配时工时应为 0")
	}
	if cap.SkillLevel != model.DefaultSkillLevel {
		t.Errorf("无分配时应返回默认技能等级，得到 %s", cap.SkillLevel)
	}
	if cap.Efficiency != model.DefaultEfficiency {
		t.Errorf("无分配时应返回默认效率，得到 %f", cap.Efficiency)
	}
}

func TestWorkerCapacity_WorkerNotFound(t *testing.T) {
	calc := NewCalculator(newFakeStore())
	_, err := calc.WorkerCapacity(context.Background(), uuid.New(), uuid.New(), time.Now(), model.ShiftMorning)
	if !apperrors.Is(err, apperrors.CodeWorkerNotFound) {
		t.Errorf("不存在的工人应返回 WorkerNotFound，得到 %v", err)
	}
}

// 超额指派时剩余工时钳制为 0
func TestWorkerCapacity_OverAssignedClamped(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()
	worker := &model.Worker{BaseModel: model.NewBaseModel(), WorkspaceID: ws, FirstName: "W"}
	store.workers[worker.ID] = worker

	store.allocations[worker.ID.String()+"|2024-06-01|MORNING"] = &model.WorkerAllocation{
		WorkerID:       worker.ID,
		AllocationDate: "2024-06-01",
		Shift:          model.ShiftMorning,
		HoursAllocated: 8,
		SkillLevel:     model.SkillIntermediate,
	}
	store.workerAssigns[worker.ID.String()+"|2024-06-01"] = []*model.WorkerAssignment{
		{WorkerID: worker.ID, AssignedDate: "2024-06-01", AssignedHours: 10},
	}

	calc := NewCalculator(store)
	cap, err := calc.WorkerCapacity(context.Background(), ws, worker.ID,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), model.ShiftMorning)
	if err != nil {
		t.Fatalf("核算失败: %v", err)
	}
	if cap.AvailableHours != 0 {
		t.Errorf("超额时剩余工时应钳制为 0，得到 %f", cap.AvailableHours)
	}
	if cap.IsAvailable {
		t.Error("超额时应判定为不可用")
	}
}

func TestLineOverview(t *testing.T) {
	store := newFakeStore()
	ws := uuid.New()

	line := &model.ProductionLine{
		BaseModel:   model.NewBaseModel(),
		WorkspaceID: ws,
		Name:        "L1",
		Allocations: []*model.WorkerAllocation{{HoursAllocated: 8}},
	}
	store.lines[line.ID] = line
	store.lineAssignments[line.ID.String()+"|2024-06-01"] = []*model.WorkerAssignment{
		{AssignedHours: 6},
	}

	calc := NewCalculator(store)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	overview, err := calc.LineOverview(context.Background(), ws, line.ID, from, to)
	if err != nil {
		t.Fatalf("总览失败: %v", err)
	}

	if len(overview.Days) != 2 {
		t.Fatalf("应有 2 天数据，得到 %d", len(overview.Days))
	}
	// 每天 3 个班次 × 1 份分配 × 8 小时
	if overview.Days[0].TotalHours != 24 {
		t.Errorf("单日总工时应为 24，得到 %f", overview.Days[0].TotalHours)
	}
	// 指派工时按天计一次
	if overview.Days[0].UtilizedHours != 6 {
		t.Errorf("首日指派工时应为 6，得到 %f", overview.Days[0].UtilizedHours)
	}
	if overview.Days[1].UtilizedHours != 0 {
		t.Errorf("次日指派工时应为 0，得到 %f", overview.Days[1].UtilizedHours)
	}
	if overview.TotalHours != 48 {
		t.Errorf("总工时应为 48，得到 %f", overview.TotalHours)
	}
	if math.Abs(overview.AvgUtilization-12.5) > 0.01 {
		t.Errorf("平均利用率应为 12.5，得到 %f", overview.AvgUtilization)
	}

	// 反向区间报错
	if _, err := calc.LineOverview(context.Background(), ws, line.ID, to, from); err == nil {
		t.Error("反向日期区间应返回错误")
	}
}
