// Package workspace 提供多工作区支持
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWorkspaceNotFound = errors.New("工作区不存在")
	ErrInvalidWorkspace  = errors.New("无效的工作区")
	ErrWorkspaceDisabled = errors.New("工作区已禁用")
)

// Workspace 工作区
// 排程引擎的所有数据按工作区隔离
type Workspace struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`   // 工作区编码
	Name      string     `json:"name"`   // 工作区名称
	Status    string     `json:"status"` // active/suspended/expired
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// Settings 工作区配置
type Settings struct {
	MaxWorkers       int      `json:"max_workers"`          // 最大工人数
	MaxLines         int      `json:"max_production_lines"` // 最大产线数
	Features         []string `json:"features"`             // 启用的功能
	APIRateLimit     int      `json:"api_rate_limit"`       // API速率限制
	DataRetention    int      `json:"data_retention_days"`  // 数据保留天数
}

// IsActive 检查工作区是否活跃
func (w *Workspace) IsActive() bool {
	if w.Status != "active" {
		return false
	}
	if w.ExpiredAt != nil && w.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature 检查工作区是否拥有某功能
func (w *Workspace) HasFeature(feature string) bool {
	for _, f := range w.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// Manager 工作区管理器
type Manager struct {
	workspaces map[string]*Workspace // code -> workspace
	mu         sync.RWMutex
}

// NewManager 创建工作区管理器
func NewManager() *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
	}
}

// Register 注册工作区
func (m *Manager) Register(ws *Workspace) error {
	if ws == nil || ws.Code == "" {
		return ErrInvalidWorkspace
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.workspaces[ws.Code] = ws
	return nil
}

// Get 获取工作区
func (m *Manager) Get(code string) (*Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, exists := m.workspaces[code]
	if !exists {
		return nil, ErrWorkspaceNotFound
	}

	if !ws.IsActive() {
		return nil, ErrWorkspaceDisabled
	}

	return ws, nil
}

// GetByID 通过ID获取工作区
func (m *Manager) GetByID(id uuid.UUID) (*Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ws := range m.workspaces {
		if ws.ID == id {
			if !ws.IsActive() {
				return nil, ErrWorkspaceDisabled
			}
			return ws, nil
		}
	}

	return nil, ErrWorkspaceNotFound
}

// List 列出所有工作区
func (m *Manager) List() []*Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Workspace, 0, len(m.workspaces))
	for _, w := range m.workspaces {
		result = append(result, w)
	}
	return result
}

// Remove 移除工作区
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workspaces, code)
}

// workspaceContextKey 工作区上下文键
type workspaceContextKey struct{}

// WithWorkspace 将工作区添加到上下文
func WithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey{}, ws)
}

// FromContext 从上下文获取工作区
func FromContext(ctx context.Context) (*Workspace, bool) {
	ws, ok := ctx.Value(workspaceContextKey{}).(*Workspace)
	return ws, ok
}

// DefaultSettings 默认工作区配置
func DefaultSettings() Settings {
	return Settings{
		MaxWorkers:    500,
		MaxLines:      20,
		Features:      []string{"assign", "capacity", "optimize", "stats"},
		APIRateLimit:  100,
		DataRetention: 365,
	}
}

// CreateDefaultWorkspace 创建默认工作区（开发测试用）
func CreateDefaultWorkspace() *Workspace {
	return &Workspace{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认工作区",
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}
