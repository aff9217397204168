package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/akproject/ak-chat/internal/upstream"
)

// 规划会话使用低温度以获得稳定的结构化输出
const (
	planningModel       = "gpt-4o-mini"
	planningTemperature = 0.3
)

// planningPrompt 计划生成提示词模板
const planningPrompt = `
Создай детальный план выполнения следующей задачи: "%s"

Ответь СТРОГО в формате JSON:
{
  "title": "Название плана",
  "description": "Краткое описание того, что будет сделано",
  "steps": [
    {
      "id": "step_1",
      "title": "Название этапа",
      "description": "Подробное описание что нужно сделать на этом этапе",
      "type": "code-generation | api-request | info-request | analysis",
      "requiredInput": {
        "type": "api-key | info | confirmation",
        "prompt": "Что запросить у пользователя",
        "required": true
      }
    }
  ]
}

Поля "type" и "requiredInput" необязательны. Создай от 3 до 8 логических этапов.
Каждый этап должен быть конкретным и выполнимым.
`

// Completer 上游补全接口
type Completer interface {
	Complete(ctx context.Context, settings upstream.Settings, message string) (string, error)
}

// Generator 计划生成器
type Generator struct {
	upstream Completer
}

// NewGenerator 创建计划生成器
func NewGenerator(up Completer) *Generator {
	return &Generator{upstream: up}
}

// Generate 将自然语言任务转换为结构化计划
// 响应经清理后严格解码并校验；任何失败返回 ParseError，不产生部分计划
func (g *Generator) Generate(ctx context.Context, task string) (*Plan, error) {
	if strings.TrimSpace(task) == "" {
		return nil, fmt.Errorf("task description is empty")
	}

	raw, err := g.upstream.Complete(ctx, upstream.Settings{
		Model:       planningModel,
		Temperature: planningTemperature,
	}, fmt.Sprintf(planningPrompt, task))
	if err != nil {
		return nil, fmt.Errorf("failed to request plan: %w", err)
	}

	return Parse(raw)
}

// Parse 将模型输出解析为计划
func Parse(raw string) (*Plan, error) {
	cleaned := repairJSON(raw)

	var p Plan
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, &ParseError{Reason: "response is not valid JSON", Err: err}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	p.ID = uuid.New().String()
	for _, step := range p.Steps {
		step.Status = StatusPending
		step.Result = ""
		step.Code = ""
	}
	return &p, nil
}

// repairJSON 修复 JSON 字符串
// 策略：先尝试快速路径（有效 JSON 直接返回），再尝试修复
func repairJSON(input string) string {
	s := strings.TrimSpace(input)

	// 快速路径：已经是有效的 JSON 对象
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && json.Valid([]byte(s)) {
		return s
	}

	// 尝试提取 JSON 对象区域
	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i >= 0 && j >= i {
		sub := s[i : j+1]
		if json.Valid([]byte(sub)) {
			return sub
		}
		s = sub
	}

	// 移除常见的模型生成伪影
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if json.Valid([]byte(s)) {
		return s
	}

	// 使用 jsonrepair 进行强力修复
	out, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return s // 修复失败，返回原值
	}
	return out
}
