// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paichan/paichan/internal/metrics"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/scheduler/capacity"
)

// CapacityHandler 产能核算处理器
type CapacityHandler struct {
	calculator *capacity.Calculator
}

// NewCapacityHandler 创建产能核算处理器
func NewCapacityHandler(calculator *capacity.Calculator) *CapacityHandler {
	return &CapacityHandler{calculator: calculator}
}

// Line 核算产线某日期/班次的产能
// GET /api/v1/capacity/line?workspace_id=&line_id=&date=&shift=
func (h *CapacityHandler) Line(w http.ResponseWriter, r *http.Request) {
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
	lineID, appErr := parseUUID(q.Get("line_id"), "line_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	date, appErr := parseDate(q.Get("date"), "date")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	result, err := h.calculator.LineCapacity(r.Context(), workspaceID, lineID, date, model.Shift(q.Get("shift")))
	if err != nil {
		respondAppError(w, err)
		return
	}

	metrics.SetLineUtilization(workspaceID.String(), lineID.String(), result.UtilizationRate)
	respondJSON(w, http.StatusOK, result)
}

// Worker 核算工人某日期/班次的产能
// GET /api/v1/capacity/worker?workspace_id=&worker_id=&date=&shift=
func (h *CapacityHandler) Worker(w http.ResponseWriter, r *http.Request) {
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
	workerID, appErr := parseUUID(q.Get("worker_id"), "worker_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	date, appErr := parseDate(q.Get("date"), "date")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	result, err := h.calculator.WorkerCapacity(r.Context(), workspaceID, workerID, date, model.Shift(q.Get("shift")))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Overview 产线日期区间的产能总览
// GET /api/v1/capacity/overview?workspace_id=&line_id=&start_date=&end_date=
func (h *CapacityHandler) Overview(w http.ResponseWriter, r *http.Request) {
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
	lineID, appErr := parseUUID(q.Get("line_id"), "line_id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	from, appErr := parseDate(q.Get("start_date"), "start_date")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	to, appErr := parseDate(q.Get("end_date"), "end_date")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	result, err := h.calculator.LineOverview(r.Context(), workspaceID, lineID, from, to)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
