package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

func TestCheckWindow(t *testing.T) {
	checker := NewChecker()
	workerID := uuid.New()

	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	window := model.TimeRange{Start: start, End: start.AddDate(0, 0, 1)}

	existing := []*model.WorkerAssignment{
		{WorkerID: workerID, AssignedDate: "2024-06-01", AssignedHours: 4},
	}

	conflicts := checker.CheckWindow(workerID, window, existing)
	if len(conflicts) != 1 {
		t.Fatalf("窗口内已有指派应产生 1 个冲突，得到 %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictWindow {
		t.Errorf("冲突类型错误: %s", conflicts[0].Type)
	}

	// 其他工人的指派不应冲突
	other := []*model.WorkerAssignment{
		{WorkerID: uuid.New(), AssignedDate: "2024-06-01", AssignedHours: 4},
	}
	if got := checker.CheckWindow(workerID, window, other); len(got) != 0 {
		t.Errorf("其他工人的指派不应产生冲突，得到 %d", len(got))
	}

	// 窗口外的指派不应冲突
	outside := []*model.WorkerAssignment{
		{WorkerID: workerID, AssignedDate: "2024-06-05", AssignedHours: 4},
	}
	if got := checker.CheckWindow(workerID, window, outside); len(got) != 0 {
		t.Errorf("窗口外的指派不应产生冲突，得到 %d", len(got))
	}
}

func TestCheckCeiling(t *testing.T) {
	checker := NewChecker()
	workerID := uuid.New()

	alloc := &model.WorkerAllocation{
		WorkerID:       workerID,
		AllocationDate: "2024-06-01",
		Shift:          model.ShiftMorning,
		HoursAllocated: 8,
	}

	assigned := []*model.WorkerAssignment{
		{WorkerID: workerID, AssignedDate: "2024-06-01", AssignedHours: 5},
	}

	// 剩余 3 小时，请求 3 小时应通过
	if c := checker.CheckCeiling(alloc, assigned, 3); c != nil {
		t.Errorf("额度内请求不应冲突: %s", c.Message)
	}

	// 请求 4 小时应超额
	c := checker.CheckCeiling(alloc, assigned, 4)
	if c == nil {
		t.Fatal("超出额度的请求应产生冲突")
	}
	if c.Type != ConflictCeiling {
		t.Errorf("冲突类型错误: %s", c.Type)
	}

	// 无分配记录
	c = checker.CheckCeiling(nil, nil, 1)
	if c == nil || c.Type != ConflictNoAlloc {
		t.Error("无分配记录应产生 no_alloc 冲突")
	}
}

func TestCheckSkill(t *testing.T) {
	checker := NewChecker()

	if c := checker.CheckSkill(model.SkillAdvanced, model.SkillIntermediate); c != nil {
		t.Error("技能超出要求不应冲突")
	}
	if c := checker.CheckSkill(model.SkillBeginner, model.SkillAdvanced); c == nil {
		t.Error("匹配度 1/3 应产生技能冲突")
	}
	// 匹配度恰为 0.5 不低于阈值
	if c := checker.CheckSkill(model.SkillBeginner, model.SkillIntermediate); c != nil {
		t.Error("匹配度恰为 0.5 不应冲突")
	}
}

func TestCheckPlan(t *testing.T) {
	checker := NewChecker()
	workerID := uuid.New()

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	entries := []PlanEntry{
		{
			ScheduleID: uuid.New(),
			WorkerID:   workerID,
			Window:     model.TimeRange{Start: base, End: base.Add(8 * time.Hour)},
		},
		{
			ScheduleID: uuid.New(),
			WorkerID:   workerID,
			Window:     model.TimeRange{Start: base.Add(4 * time.Hour), End: base.Add(12 * time.Hour)},
		},
	}

	conflicts := checker.CheckPlan(entries)
	if len(conflicts) != 1 {
		t.Fatalf("同一工人重叠排程应产生 1 个冲突，得到 %d", len(conflicts))
	}

	// 错开的排程无冲突
	entries[1].Window = model.TimeRange{Start: base.Add(8 * time.Hour), End: base.Add(16 * time.Hour)}
	if got := checker.CheckPlan(entries); len(got) != 0 {
		t.Errorf("首尾相接的排程不应冲突，得到 %d", len(got))
	}
}
