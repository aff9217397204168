package plan

import "sync"

// Registry 进程内计划运行注册表
// 计划运行是视图级临时状态，不做持久化，进程重启即丢失
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Execution
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Execution)}
}

// Add 登记计划运行
func (r *Registry) Add(planID string, exec *Execution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[planID] = exec
}

// Get 按计划 ID 查找运行
func (r *Registry) Get(planID string) (*Execution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.runs[planID]
	return exec, ok
}

// Remove 移除计划运行
func (r *Registry) Remove(planID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, planID)
}
