// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/paichan/paichan/internal/metrics"
	"github.com/paichan/paichan/pkg/errors"
	"github.com/paichan/paichan/pkg/model"
	"github.com/paichan/paichan/pkg/scheduler/assign"
)

// AssignHandler 工人指派处理器
type AssignHandler struct {
	matcher *assign.Matcher
}

// NewAssignHandler 创建工人指派处理器
func NewAssignHandler(matcher *assign.Matcher) *AssignHandler {
	return &AssignHandler{matcher: matcher}
}

// AssignRequest 指派请求
type AssignRequest struct {
	WorkspaceID          string  `json:"workspace_id"`
	WorkerID             string  `json:"worker_id"`
	ProductionScheduleID string  `json:"production_schedule_id"`
	WorkStationID        string  `json:"work_station_id,omitempty"`
	RequiredSkill        string  `json:"required_skill"`
	EstimatedHours       float64 `json:"estimated_hours"`
	PreferredStartTime   string  `json:"preferred_start_time"` // RFC3339
	Shift                string  `json:"shift,omitempty"`
	Priority             string  `json:"priority,omitempty"`
}

// Assign 将工人指派到生产任务
func (h *AssignHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	engineReq, appErr := h.buildEngineRequest(&req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	result, err := h.matcher.AssignWorkerToTask(r.Context(), engineReq)
	if err != nil {
		respondAppError(w, err)
		return
	}

	metrics.RecordAssignment(result.Success, result.ConflictReason)
	respondJSON(w, http.StatusOK, result)
}

// buildEngineRequest 将请求转换为引擎请求
func (h *AssignHandler) buildEngineRequest(req *AssignRequest) (*assign.Request, *errors.AppError) {
	ve := &errors.ValidationErrors{}

	if req.WorkspaceID == "" {
		ve.Add("workspace_id", "工作区ID不能为空")
	}
	if req.WorkerID == "" {
		ve.Add("worker_id", "工人ID不能为空")
	}
	if req.ProductionScheduleID == "" {
		ve.Add("production_schedule_id", "排程ID不能为空")
	}
	if req.RequiredSkill == "" {
		ve.Add("required_skill", "技能要求不能为空")
	}
	if req.PreferredStartTime == "" {
		ve.Add("preferred_start_time", "期望开始时间不能为空")
	}
	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	workspaceID, appErr := parseUUID(req.WorkspaceID, "workspace_id")
	if appErr != nil {
		return nil, appErr
	}
	workerID, appErr := parseUUID(req.WorkerID, "worker_id")
	if appErr != nil {
		return nil, appErr
	}
	scheduleID, appErr := parseUUID(req.ProductionScheduleID, "production_schedule_id")
	if appErr != nil {
		return nil, appErr
	}
	stationID, appErr := parseOptionalUUID(req.WorkStationID, "work_station_id")
	if appErr != nil {
		return nil, appErr
	}

	startTime, err := time.Parse(time.RFC3339, req.PreferredStartTime)
	if err != nil {
		return nil, errors.InvalidInput("preferred_start_time", "时间格式无效，应为RFC3339")
	}

	return &assign.Request{
		WorkspaceID:          workspaceID,
		WorkerID:             workerID,
		ProductionScheduleID: scheduleID,
		WorkStationID:        stationID,
		RequiredSkill:        model.SkillLevel(req.RequiredSkill),
		EstimatedHours:       req.EstimatedHours,
		PreferredStartTime:   startTime,
		Shift:                model.Shift(req.Shift),
		Priority:             model.Priority(req.Priority),
	}, nil
}
