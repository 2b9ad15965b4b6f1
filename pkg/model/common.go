// Package model 定义生产排程引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Shift 班次类型（封闭枚举）
type Shift string

const (
	ShiftMorning   Shift = "MORNING"   // 早班 6:00-14:00
	ShiftAfternoon Shift = "AFTERNOON" // 中班 14:00-22:00
	ShiftNight     Shift = "NIGHT"     // 夜班 22:00-6:00
)

// shiftHours 各班次标称工时（小时）
var shiftHours = map[Shift]float64{
	ShiftMorning:   8,
	ShiftAfternoon: 8,
	ShiftNight:     8,
}

// Hours 返回班次标称工时
func (s Shift) Hours() float64 {
	return shiftHours[s]
}

// Valid 检查班次是否合法
func (s Shift) Valid() bool {
	_, ok := shiftHours[s]
	return ok
}

// ParseShift 解析班次字符串，未识别的值返回错误而非静默零值
func ParseShift(v string) (Shift, error) {
	s := Shift(v)
	if !s.Valid() {
		return "", fmt.Errorf("未知班次: %q", v)
	}
	return s, nil
}

// SkillLevel 技能等级（封闭枚举）
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "BEGINNER"     // 初级
	SkillIntermediate SkillLevel = "INTERMEDIATE" // 中级
	SkillAdvanced     SkillLevel = "ADVANCED"     // 高级
)

// skillOrdinals 技能等级序数，用于匹配评分
var skillOrdinals = map[SkillLevel]int{
	SkillBeginner:     1,
	SkillIntermediate: 2,
	SkillAdvanced:     3,
}

// Ordinal 返回技能等级序数
func (l SkillLevel) Ordinal() int {
	return skillOrdinals[l]
}

// Valid 检查技能等级是否合法
func (l SkillLevel) Valid() bool {
	_, ok := skillOrdinals[l]
	return ok
}

// ParseSkillLevel 解析技能等级字符串
func ParseSkillLevel(v string) (SkillLevel, error) {
	l := SkillLevel(v)
	if !l.Valid() {
		return "", fmt.Errorf("未知技能等级: %q", v)
	}
	return l, nil
}

// SkillMatch 计算技能匹配度：达到或超过要求为 1.0，否则为序数比值
func SkillMatch(workerSkill, requiredSkill SkillLevel) float64 {
	workerLevel := workerSkill.Ordinal()
	requiredLevel := requiredSkill.Ordinal()

	if workerLevel >= requiredLevel {
		return 1.0
	}
	return float64(workerLevel) / float64(requiredLevel)
}

// ScheduleStatus 生产排程状态
type ScheduleStatus string

const (
	StatusPlanned    ScheduleStatus = "PLANNED"
	StatusInProgress ScheduleStatus = "IN_PROGRESS"
	StatusCompleted  ScheduleStatus = "COMPLETED"
	StatusOnHold     ScheduleStatus = "ON_HOLD"
)

// Priority 任务优先级
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Hours 返回时间范围的小时数
func (tr TimeRange) Hours() float64 {
	return tr.End.Sub(tr.Start).Hours()
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DayRange 返回覆盖某天的时间范围 [00:00, 次日00:00)
func DayRange(date time.Time) TimeRange {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// DateKey 返回日期的 YYYY-MM-DD 表示
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
