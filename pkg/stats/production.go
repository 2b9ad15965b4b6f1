// Package stats 提供生产KPI统计分析
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
)

// Store 统计分析依赖的持久化原语
type Store interface {
	// ListSchedulesForDay 查找计划开始时间落在当日的生产排程（含指派与进度日志）
	// lineID / workerID 为可选过滤条件
	ListSchedulesForDay(ctx context.Context, workspaceID uuid.UUID, day model.TimeRange, lineID, workerID *uuid.UUID) ([]*model.ProductionSchedule, error)
}

// CostRates 成本费率
type CostRates struct {
	LaborPerHour    float64 `json:"labor_per_hour"`
	OverheadPerHour float64 `json:"overhead_per_hour"`
}

// DefaultCostRates 默认成本费率（PHP）
func DefaultCostRates() CostRates {
	return CostRates{LaborPerHour: 150, OverheadPerHour: 50}
}

// CostBreakdown 成本拆分
type CostBreakdown struct {
	Labor    float64 `json:"labor"`
	Material float64 `json:"material"` // 占位：待物料成本对接
	Overhead float64 `json:"overhead"`
	Total    float64 `json:"total"`
}

// ProductionMetrics 生产KPI
type ProductionMetrics struct {
	Date             string     `json:"date"`
	ProductionLineID *uuid.UUID `json:"production_line_id,omitempty"`
	WorkerID         *uuid.UUID `json:"worker_id,omitempty"`

	TotalOrders     int     `json:"total_orders"`
	CompletedOrders int     `json:"completed_orders"`
	OnTimeDelivery  float64 `json:"on_time_delivery"` // %
	QualityScore    float64 `json:"quality_score"`
	Efficiency      float64 `json:"efficiency"`       // %，可超过 100（提前完成）
	UtilizationRate float64 `json:"utilization_rate"` // %，钳制在 [0,100]
	DefectRate      float64 `json:"defect_rate"`      // %
	Throughput      float64 `json:"throughput"`       // 件/小时

	Cost CostBreakdown `json:"cost"`
}

// Aggregator 生产KPI统计器
// 纯读操作；所有比率在分母为零时返回 0 而非 NaN/Inf
type Aggregator struct {
	store Store
	rates CostRates
}

// NewAggregator 创建统计器
func NewAggregator(store Store, rates CostRates) *Aggregator {
	return &Aggregator{store: store, rates: rates}
}

// GenerateProductionMetrics 统计某日的生产KPI
// 可按产线或工人过滤
func (a *Aggregator) GenerateProductionMetrics(ctx context.Context, workspaceID uuid.UUID, date time.Time, lineID, workerID *uuid.UUID) (*ProductionMetrics, error) {
	day := model.DayRange(date)

	schedules, err := a.store.ListSchedulesForDay(ctx, workspaceID, day, lineID, workerID)
	if err != nil {
		return nil, errors.Database(err, "查找生产排程")
	}

	metrics := &ProductionMetrics{
		Date:             model.DateKey(date),
		ProductionLineID: lineID,
		WorkerID:         workerID,
	}

	metrics.TotalOrders = len(schedules)

	var onTimeOrders int
	var totalPlannedHours, totalActualHours float64
	var qualitySum float64
	var qualityCount int
	var totalProduced, totalDefects int

	for _, sched := range schedules {
		if sched.IsCompleted() {
			metrics.CompletedOrders++
		}
		if sched.IsOnTime() {
			onTimeOrders++
		}

		totalPlannedHours += sched.PlannedHours()
		totalActualHours += sched.ActualHours()

		for _, log := range sched.ProgressLogs {
			if log.QualityScore != nil {
				qualitySum += *log.QualityScore
				qualityCount++
			}
			totalDefects += log.QuantityRejected
		}
		totalProduced += sched.CompletedQuantity
	}

	if metrics.TotalOrders > 0 {
		metrics.OnTimeDelivery = float64(onTimeOrders) / float64(metrics.TotalOrders) * 100
	}

	// 效率 = 计划/实际；实际更快时超过 100，表示超前于计划
	if totalActualHours > 0 {
		metrics.Efficiency = totalPlannedHours / totalActualHours * 100
	}

	if qualityCount > 0 {
		metrics.QualityScore = qualitySum / float64(qualityCount)
	}

	// 利用率展示钳制到 100
	metrics.UtilizationRate = metrics.Efficiency
	if metrics.UtilizationRate > 100 {
		metrics.UtilizationRate = 100
	}

	if totalProduced > 0 {
		metrics.DefectRate = float64(totalDefects) / float64(totalProduced) * 100
	}

	if totalActualHours > 0 {
		metrics.Throughput = float64(totalProduced) / totalActualHours
	}

	metrics.Cost = CostBreakdown{
		Labor:    totalActualHours * a.rates.LaborPerHour,
		Material: 0,
		Overhead: totalActualHours * a.rates.OverheadPerHour,
	}
	metrics.Cost.Total = metrics.Cost.Labor + metrics.Cost.Material + metrics.Cost.Overhead

	return metrics, nil
}
