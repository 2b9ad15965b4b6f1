// Package validator 提供指派校验功能
package validator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictWindow     ConflictType = "window"     // 时间窗口内已有指派
	ConflictCeiling    ConflictType = "ceiling"    // 超出分配额度
	ConflictNoAlloc    ConflictType = "no_alloc"   // 无工时分配
	ConflictOverlap    ConflictType = "overlap"    // 优化方案内时间重叠
	ConflictSkillLevel ConflictType = "skill"      // 技能不足
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	WorkerID uuid.UUID    `json:"worker_id"`
	Date     string       `json:"date"`
	Message  string       `json:"message"`
}

// Checker 指派校验器
type Checker struct {
	// MinSkillMatch 低于该匹配度视为技能不足
	MinSkillMatch float64
}

// NewChecker 创建指派校验器
func NewChecker() *Checker {
	return &Checker{MinSkillMatch: 0.5}
}

// CheckWindow 检查时间窗口内是否已有该工人的指派
// 窗口按"指派日落在 [start, end) 内"判定
func (c *Checker) CheckWindow(workerID uuid.UUID, window model.TimeRange, existing []*model.WorkerAssignment) []Conflict {
	var conflicts []Conflict

	for _, a := range existing {
		if a.WorkerID != workerID {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", a.AssignedDate, window.Start.Location())
		if err != nil {
			continue
		}
		if window.Contains(date) || model.DayRange(date).Overlaps(window) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictWindow,
				Severity: "error",
				WorkerID: workerID,
				Date:     a.AssignedDate,
				Message:  fmt.Sprintf("工人在 %s 已有 %.1f 小时指派", a.AssignedDate, a.AssignedHours),
			})
		}
	}

	return conflicts
}

// CheckCeiling 检查新增工时是否超出当日分配额度
// 额度 = 分配工时 - 已指派工时之和
func (c *Checker) CheckCeiling(alloc *model.WorkerAllocation, assigned []*model.WorkerAssignment, requested float64) *Conflict {
	if alloc == nil {
		return &Conflict{
			Type:     ConflictNoAlloc,
			Severity: "error",
			Message:  "该日期/班次无工时分配",
		}
	}

	committed := 0.0
	for _, a := range assigned {
		if a.WorkerID == alloc.WorkerID && a.AssignedDate == alloc.AllocationDate {
			committed += a.AssignedHours
		}
	}

	available := alloc.HoursAllocated - committed
	if requested > available {
		return &Conflict{
			Type:     ConflictCeiling,
			Severity: "error",
			WorkerID: alloc.WorkerID,
			Date:     alloc.AllocationDate,
			Message:  fmt.Sprintf("请求 %.1f 小时，剩余额度仅 %.1f 小时", requested, available),
		}
	}

	return nil
}

// CheckSkill 检查技能匹配度是否达标
func (c *Checker) CheckSkill(workerSkill, requiredSkill model.SkillLevel) *Conflict {
	match := model.SkillMatch(workerSkill, requiredSkill)
	if match < c.MinSkillMatch {
		return &Conflict{
			Type:     ConflictSkillLevel,
			Severity: "error",
			Message:  fmt.Sprintf("技能匹配度 %.2f 低于要求的 %.2f", match, c.MinSkillMatch),
		}
	}
	return nil
}

// PlanEntry 优化方案中的一条排程
type PlanEntry struct {
	ScheduleID uuid.UUID
	WorkerID   uuid.UUID
	Window     model.TimeRange
}

// CheckPlan 检查优化方案内同一工人是否存在时间重叠
func (c *Checker) CheckPlan(entries []PlanEntry) []Conflict {
	var conflicts []Conflict

	byWorker := make(map[uuid.UUID][]PlanEntry)
	for _, e := range entries {
		byWorker[e.WorkerID] = append(byWorker[e.WorkerID], e)
	}

	for workerID, list := range byWorker {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].Window.Overlaps(list[j].Window) {
					conflicts = append(conflicts, Conflict{
						Type:     ConflictOverlap,
						Severity: "error",
						WorkerID: workerID,
						Date:     model.DateKey(list[i].Window.Start),
						Message:  fmt.Sprintf("排程 %s 与 %s 时间重叠", list[i].ScheduleID, list[j].ScheduleID),
					})
				}
			}
		}
	}

	return conflicts
}
