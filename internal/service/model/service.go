// Package model 提供可用文本模型目录
package model

// Info 模型信息
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service 模型目录服务
type Service struct {
	models []Info
}

// NewService 创建模型目录服务
func NewService() *Service {
	return &Service{
		models: []Info{
			{ID: "gpt-4o-mini", Name: "GPT-4O Mini", Description: "Fast and efficient"},
			{ID: "gpt-4", Name: "GPT-4", Description: "Advanced reasoning"},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Quick responses"},
		},
	}
}

// List 列出可用模型
func (s *Service) List() []Info {
	out := make([]Info, len(s.models))
	copy(out, s.models)
	return out
}

// Exists 检查模型是否在目录中
func (s *Service) Exists(id string) bool {
	for _, m := range s.models {
		if m.ID == id {
			return true
		}
	}
	return false
}
