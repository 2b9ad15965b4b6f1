package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWorkspace_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		ws       *Workspace
		expected bool
	}{
		{
			name:     "活跃工作区",
			ws:       &Workspace{Status: "active"},
			expected: true,
		},
		{
			name:     "暂停工作区",
			ws:       &Workspace{Status: "suspended"},
			expected: false,
		},
		{
			name:     "未过期工作区",
			ws:       &Workspace{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "已过期工作区",
			ws:       &Workspace{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.ws.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestWorkspace_HasFeature(t *testing.T) {
	ws := &Workspace{
		Settings: Settings{
			Features: []string{"assign", "capacity"},
		},
	}

	if !ws.HasFeature("assign") {
		t.Error("应有assign功能")
	}
	if !ws.HasFeature("capacity") {
		t.Error("应有capacity功能")
	}
	if ws.HasFeature("optimize") {
		t.Error("不应有optimize功能")
	}

	// 测试通配符
	ws2 := &Workspace{
		Settings: Settings{
			Features: []string{"*"},
		},
	}
	if !ws2.HasFeature("anything") {
		t.Error("通配符应匹配任何功能")
	}
}

func TestManager_RegisterAndGet(t *testing.T) {
	manager := NewManager()

	ws := &Workspace{
		ID:     uuid.New(),
		Code:   "test",
		Name:   "测试工作区",
		Status: "active",
	}

	// 注册
	err := manager.Register(ws)
	if err != nil {
		t.Errorf("Register failed: %v", err)
	}

	// 获取
	got, err := manager.Get("test")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "test" {
		t.Errorf("Got wrong workspace: %v", got)
	}

	// 获取不存在的
	_, err = manager.Get("nonexistent")
	if err != ErrWorkspaceNotFound {
		t.Errorf("Expected ErrWorkspaceNotFound, got: %v", err)
	}
}

func TestManager_GetByID(t *testing.T) {
	manager := NewManager()
	id := uuid.New()

	ws := &Workspace{
		ID:     id,
		Code:   "test",
		Status: "active",
	}
	manager.Register(ws)

	got, err := manager.GetByID(id)
	if err != nil {
		t.Errorf("GetByID failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("Got wrong workspace")
	}
}

func TestWorkspaceContext(t *testing.T) {
	ws := &Workspace{Code: "test"}
	ctx := WithWorkspace(context.Background(), ws)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "test" {
		t.Error("Got wrong workspace from context")
	}

	// 空上下文
	_, ok = FromContext(context.Background())
	if ok {
		t.Error("Empty context should return false")
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.MaxWorkers != 500 {
		t.Errorf("Expected MaxWorkers=500, got %d", settings.MaxWorkers)
	}
	if len(settings.Features) != 4 {
		t.Errorf("Expected 4 features, got %d", len(settings.Features))
	}
}

func TestCreateDefaultWorkspace(t *testing.T) {
	ws := CreateDefaultWorkspace()

	if ws.Code != "default" {
		t.Errorf("Expected code='default', got %s", ws.Code)
	}
	if ws.Status != "active" {
		t.Errorf("Expected status='active', got %s", ws.Status)
	}
}
