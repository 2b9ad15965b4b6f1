// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/stats"
)

// StatsHandler 生产KPI统计处理器
type StatsHandler struct {
	aggregator *stats.Aggregator
}

// NewStatsHandler 创建生产KPI统计处理器
func NewStatsHandler(aggregator *stats.Aggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// Production 统计某日的生产KPI
// GET /api/v1/stats/production?workspace_id=&date=&line_id=&worker_id=
func (h *StatsHandler) Production(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	q := r.URL.Query()

	workspaceID, appErr := parseUUID(q.Get("workspace_id"), "workspace_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	date, appErr := parseDate(q.Get("date"), "date")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	lineID, appErr := parseOptionalUUID(q.Get("line_id"), "line_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	workerID, appErr := parseOptionalUUID(q.Get("worker_id"), "worker_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	result, err := h.aggregator.GenerateProductionMetrics(r.Context(), workspaceID, date, lineID, workerID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
