// Package capacity 提供产线与工人的产能核算
package capacity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// DayCapacity 产线单日产能汇总
type DayCapacity struct {
	Date            string          `json:"date"`
	Shifts          []*LineCapacity `json:"shifts"`
	TotalHours      float64         `json:"total_hours"`
	UtilizedHours   float64         `json:"utilized_hours"`
	UtilizationRate float64         `json:"utilization_rate"` // %
}

// Overview 产线产能总览
// 按日期区间逐日汇总，供产能看板使用
// 指派记录按日落账，利用率以天为粒度计一次
type Overview struct {
	ProductionLineID uuid.UUID      `json:"production_line_id"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	Days             []*DayCapacity `json:"days"`
	TotalHours       float64        `json:"total_hours"`
	UtilizedHours    float64        `json:"utilized_hours"`
	AvgUtilization   float64        `json:"avg_utilization"` // %
	PeakUtilization  float64        `json:"peak_utilization"`
}

// allShifts 总览覆盖的班次
var allShifts = []model.Shift{model.ShiftMorning, model.ShiftAfternoon, model.ShiftNight}

// LineOverview 生成产线日期区间的产能总览
// 区间为闭区间 [from, to]，按天迭代
func (c *Calculator) LineOverview(ctx context.Context, workspaceID, lineID uuid.UUID, from, to time.Time) (*Overview, error) {
	if to.Before(from) {
		return nil, errors.InvalidInput("end_date", "不能早于起始日期")
	}

	overview := &Overview{
		ProductionLineID: lineID,
		StartDate:        model.DateKey(from),
		EndDate:          model.DateKey(to),
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayCap := &DayCapacity{Date: model.DateKey(day)}

		// 各班次的分配容量
		for _, shift := range allShifts {
			entry, err := c.LineCapacity(ctx, workspaceID, lineID, day, shift)
			if err != nil {
				return nil, err
			}
			dayCap.Shifts = append(dayCap.Shifts, entry)
			dayCap.TotalHours += entry.TotalHours
		}

		// 指派工时按天计一次
		assignments, err := c.store.ListLineAssignments(ctx, workspaceID, lineID, day)
		if err != nil {
			return nil, errors.Database(err, "查找产线指派")
		}
		dayCap.UtilizedHours = model.SumAssignedHours(assignments)
		if dayCap.TotalHours > 0 {
			dayCap.UtilizationRate = dayCap.UtilizedHours / dayCap.TotalHours * 100
		}

		overview.Days = append(overview.Days, dayCap)
		overview.TotalHours += dayCap.TotalHours
		overview.UtilizedHours += dayCap.UtilizedHours
		if dayCap.UtilizationRate > overview.PeakUtilization {
			overview.PeakUtilization = dayCap.UtilizationRate
		}
	}

	if overview.TotalHours > 0 {
		overview.AvgUtilization = overview.UtilizedHours / overview.TotalHours * 100
	}

	return overview, nil
}
