// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/internal/metrics"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/scheduler/optimize"
)

// OptimizeHandler 排程优化处理器
type OptimizeHandler struct {
	optimizer *optimize.Optimizer
}

// NewOptimizeHandler 创建排程优化处理器
func NewOptimizeHandler(optimizer *optimize.Optimizer) *OptimizeHandler {
	return &OptimizeHandler{optimizer: optimizer}
}

// OptimizeRequest 优化请求
type OptimizeRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	ScheduleIDs []string       `json:"schedule_ids"`
	Goals       optimize.Goals `json:"optimization_goals"`
}

// Optimize 优化一组生产排程
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	workspaceID, appErr := parseUUID(req.WorkspaceID, "workspace_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	if len(req.ScheduleIDs) == 0 {
		respondError(w, errors.InvalidInput("schedule_ids", "不能为空"))
		return
	}

	scheduleIDs := make([]uuid.UUID, 0, len(req.ScheduleIDs))
	for _, raw := range req.ScheduleIDs {
		id, appErr := parseUUID(raw, "schedule_ids")
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		scheduleIDs = append(scheduleIDs, id)
	}

	start := time.Now()
	result, err := h.optimizer.OptimizeSchedules(r.Context(), workspaceID, scheduleIDs, req.Goals)
	if err != nil {
		metrics.RecordOptimization(false, time.Since(start))
		respondAppError(w, err)
		return
	}

	metrics.RecordOptimization(true, time.Since(start))
	metrics.SetOptimizationTimeSaved(workspaceID.String(), result.Improvements.TimeReduction)
	respondJSON(w, http.StatusOK, result)
}
