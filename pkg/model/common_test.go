package model

import (
	"testing"
	"time"
)

func TestSkillMatch(t *testing.T) {
	tests := []struct {
		name     string
		worker   SkillLevel
		required SkillLevel
		want     float64
	}{
		{"完全匹配", SkillIntermediate, SkillIntermediate, 1.0},
		{"超出要求", SkillAdvanced, SkillBeginner, 1.0},
		{"初级对高级", SkillBeginner, SkillAdvanced, 1.0 / 3.0},
		{"初级对中级", SkillBeginner, SkillIntermediate, 0.5},
		{"中级对高级", SkillIntermediate, SkillAdvanced, 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillMatch(tt.worker, tt.required)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("SkillMatch(%s, %s) = %f, want %f", tt.worker, tt.required, got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("匹配度应在 [0,1]，得到 %f", got)
			}
		})
	}
}

func TestSkillMatch_AllPairsBounded(t *testing.T) {
	levels := []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced}
	for _, w := range levels {
		for _, r := range levels {
			got := SkillMatch(w, r)
			if got < 0 || got > 1 {
				t.Errorf("SkillMatch(%s, %s) = %f 越界", w, r, got)
			}
			if w.Ordinal() >= r.Ordinal() && got != 1.0 {
				t.Errorf("SkillMatch(%s, %s) 应为 1.0，得到 %f", w, r, got)
			}
		}
	}
}

func TestParseShift(t *testing.T) {
	for _, v := range []string{"MORNING", "AFTERNOON", "NIGHT"} {
		s, err := ParseShift(v)
		if err != nil {
			t.Fatalf("ParseShift(%q) 失败: %v", v, err)
		}
		if s.Hours() != 8 {
			t.Errorf("班次 %s 标称工时应为 8，得到 %f", s, s.Hours())
		}
	}

	if _, err := ParseShift("GRAVEYARD"); err == nil {
		t.Error("未知班次应返回错误")
	}
	if _, err := ParseShift(""); err == nil {
		t.Error("空班次应返回错误")
	}
}

func TestParseSkillLevel(t *testing.T) {
	for _, v := range []string{"BEGINNER", "INTERMEDIATE", "ADVANCED"} {
		if _, err := ParseSkillLevel(v); err != nil {
			t.Fatalf("ParseSkillLevel(%q) 失败: %v", v, err)
		}
	}
	if _, err := ParseSkillLevel("EXPERT"); err == nil {
		t.Error("未知技能等级应返回错误")
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	tr1 := TimeRange{Start: base, End: base.Add(8 * time.Hour)}
	tr2 := TimeRange{Start: base.Add(4 * time.Hour), End: base.Add(12 * time.Hour)}
	tr3 := TimeRange{Start: base.Add(8 * time.Hour), End: base.Add(16 * time.Hour)}

	if !tr1.Overlaps(tr2) {
		t.Error("部分重叠的范围应判定为重叠")
	}
	if tr1.Overlaps(tr3) {
		t.Error("首尾相接的范围不应判定为重叠")
	}
}

func TestDayRange(t *testing.T) {
	d := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	dr := DayRange(d)

	if dr.Start.Hour() != 0 || dr.Start.Day() != 1 {
		t.Errorf("日范围起点错误: %v", dr.Start)
	}
	if dr.Hours() != 24 {
		t.Errorf("日范围应为 24 小时，得到 %f", dr.Hours())
	}
	if !dr.Contains(d) {
		t.Error("日范围应包含当日时间点")
	}
	if dr.Contains(dr.End) {
		t.Error("日范围不应包含次日零点")
	}
}

func TestScheduleHours(t *testing.T) {
	plannedStart := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	plannedEnd := plannedStart.Add(8 * time.Hour)
	actualStart := plannedStart
	actualEnd := plannedStart.Add(4 * time.Hour)

	s := &ProductionSchedule{
		PlannedStart: plannedStart,
		PlannedEnd:   plannedEnd,
		ActualStart:  &actualStart,
		ActualEnd:    &actualEnd,
	}

	if s.PlannedHours() != 8 {
		t.Errorf("计划工时应为 8，得到 %f", s.PlannedHours())
	}
	if s.ActualHours() != 4 {
		t.Errorf("实际工时应为 4，得到 %f", s.ActualHours())
	}
	if !s.IsOnTime() {
		t.Error("提前完成应判定为按时")
	}

	// 实际时间缺失时实际工时为 0
	s2 := &ProductionSchedule{PlannedStart: plannedStart, PlannedEnd: plannedEnd}
	if s2.ActualHours() != 0 {
		t.Errorf("缺失实际时间应返回 0，得到 %f", s2.ActualHours())
	}
	if s2.IsOnTime() {
		t.Error("未结束的排程不应判定为按时")
	}
}
