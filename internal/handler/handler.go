// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paichan/paichan/pkg/errors"
)

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// respondAppError 将任意错误转换为错误响应
func respondAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		respondError(w, appErr)
		return
	}
	respondError(w, errors.Wrap(err, errors.CodeInternal, "内部错误"))
}

// parseUUID 解析查询参数中的UUID
func parseUUID(value, field string) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.InvalidInput(field, "无效的UUID格式")
	}
	return id, nil
}

// parseOptionalUUID 解析可选的UUID查询参数
func parseOptionalUUID(value, field string) (*uuid.UUID, *errors.AppError) {
	if value == "" {
		return nil, nil
	}
	id, appErr := parseUUID(value, field)
	if appErr != nil {
		return nil, appErr
	}
	return &id, nil
}

// parseDate 解析 YYYY-MM-DD 日期参数
func parseDate(value, field string) (time.Time, *errors.AppError) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.InvalidInput(field, "日期格式无效，应为YYYY-MM-DD")
	}
	return t, nil
}
