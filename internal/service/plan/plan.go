// Package plan 提供任务计划的生成与顺序执行
package plan

import "fmt"

// Status 步骤状态
type Status string

// 状态机：pending → in-progress → (waiting-input → in-progress →) completed|failed
// pending|waiting-input 可被用户跳过为 skipped
// completed、failed、skipped 在一次运行内为终态
const (
	StatusPending      Status = "pending"
	StatusInProgress   Status = "in-progress"
	StatusWaitingInput Status = "waiting-input"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusSkipped      Status = "skipped"
)

// StepType 步骤执行类型
type StepType string

const (
	StepCodeGeneration StepType = "code-generation"
	StepAPIRequest     StepType = "api-request"
	StepInfoRequest    StepType = "info-request"
	StepAnalysis       StepType = "analysis"
)

// InputType 用户输入类型
type InputType string

const (
	InputAPIKey       InputType = "api-key"
	InputInfo         InputType = "info"
	InputConfirmation InputType = "confirmation"
)

// RequiredInput 步骤执行前需要用户补充的输入
// Required 为 nil 或 true 均表示必填，false 是唯一的豁免方式
type RequiredInput struct {
	Type        InputType `json:"type"`
	Prompt      string    `json:"prompt"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    *bool     `json:"required,omitempty"`
}

// IsRequired 判断该输入是否必填
func (ri *RequiredInput) IsRequired() bool {
	if ri == nil {
		return false
	}
	return ri.Required == nil || *ri.Required
}

// Step 计划步骤
type Step struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Type          StepType       `json:"type,omitempty"`
	Status        Status         `json:"status"`
	Result        string         `json:"result,omitempty"`
	Code          string         `json:"code,omitempty"`
	RequiredInput *RequiredInput `json:"requiredInput,omitempty"`
}

// Terminal 步骤是否处于终态
func (s *Step) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Plan 任务计划
// 步骤顺序在创建时固定，之后只允许原地编辑描述
type Plan struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Steps       []*Step `json:"steps"`
}

// ParseError 模型返回的计划 JSON 无法解析或不符合计划结构
// 不会产生部分填充的计划
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan parse: %s: %v", e.Reason, e.Err)
	}
	return "plan parse: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// validate 校验解析出的计划结构
func (p *Plan) validate() error {
	if p.Title == "" {
		return &ParseError{Reason: "plan title is empty"}
	}
	if len(p.Steps) == 0 {
		return &ParseError{Reason: "plan has no steps"}
	}

	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if step.ID == "" {
			return &ParseError{Reason: fmt.Sprintf("step %d has no id", i)}
		}
		if seen[step.ID] {
			return &ParseError{Reason: fmt.Sprintf("duplicate step id %q", step.ID)}
		}
		seen[step.ID] = true
		if step.Title == "" {
			return &ParseError{Reason: fmt.Sprintf("step %q has no title", step.ID)}
		}
		if ri := step.RequiredInput; ri != nil {
			switch ri.Type {
			case InputAPIKey, InputInfo, InputConfirmation:
			default:
				return &ParseError{Reason: fmt.Sprintf("step %q has unknown input type %q", step.ID, ri.Type)}
			}
		}
	}
	return nil
}
