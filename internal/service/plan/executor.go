package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// 固定结果文案
const (
	resultSkipped  = "Этап пропущен пользователем"
	resultDefaults = "Использованы настройки по умолчанию"
)

// ErrNotWaiting 计划当前没有等待输入的步骤
var ErrNotWaiting = errors.New("plan is not waiting for input")

// Execution 一次计划运行
// 步骤严格顺序执行，任一时刻至多一个步骤在执行中
type Execution struct {
	mu      sync.Mutex
	plan    *Plan
	inputs  map[InputType]string
	files   map[string]string
	waiting int // 暂停所在步骤下标，-1 表示未暂停
}

// NewExecution 创建计划运行
func NewExecution(p *Plan) *Execution {
	return &Execution{
		plan:    p,
		inputs:  make(map[InputType]string),
		files:   make(map[string]string),
		waiting: -1,
	}
}

// RunState 运行状态快照
type RunState struct {
	Plan         *Plan             `json:"plan"`
	WaitingIndex int               `json:"waiting_index"` // -1 表示没有步骤在等待输入
	Done         bool              `json:"done"`
	Files        map[string]string `json:"files,omitempty"`
}

// Run 从指定下标起顺序执行步骤
// completed/skipped 的步骤直接跳过；failed 不中断运行；
// 缺少必填输入时置为 waiting-input 并暂停，控制权交回调用方
func (e *Execution) Run(ctx context.Context, from int) (*RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if from < 0 || from > len(e.plan.Steps) {
		return nil, fmt.Errorf("step index %d out of range", from)
	}
	return e.run(ctx, from)
}

// SupplyInput 为等待中的步骤提供输入并继续执行
func (e *Execution) SupplyInput(ctx context.Context, value string) (*RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.waiting < 0 {
		return nil, ErrNotWaiting
	}

	step := e.plan.Steps[e.waiting]
	inputType := InputInfo
	if step.RequiredInput != nil {
		inputType = step.RequiredInput.Type
	}
	e.inputs[inputType] = value

	step.Status = StatusInProgress
	resume := e.waiting
	e.waiting = -1
	return e.run(ctx, resume)
}

// Skip 跳过步骤
// 仅允许 pending 或 waiting-input 状态；若运行正暂停在该步骤，则从下一步继续
func (e *Execution) Skip(ctx context.Context, index int) (*RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.plan.Steps) {
		return nil, fmt.Errorf("step index %d out of range", index)
	}

	step := e.plan.Steps[index]
	if step.Status != StatusPending && step.Status != StatusWaitingInput {
		return nil, fmt.Errorf("cannot skip step in status %q", step.Status)
	}

	wasPaused := e.waiting == index
	step.Status = StatusSkipped
	step.Result = resultSkipped

	if wasPaused {
		e.waiting = -1
		return e.run(ctx, index+1)
	}
	return e.state(), nil
}

// Edit 原地改写步骤描述，不改变状态
// 执行中的步骤不可编辑
func (e *Execution) Edit(index int, description string) (*RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.plan.Steps) {
		return nil, fmt.Errorf("step index %d out of range", index)
	}

	step := e.plan.Steps[index]
	if step.Status == StatusInProgress {
		return nil, fmt.Errorf("cannot edit step while it is running")
	}

	step.Description = description
	return e.state(), nil
}

// State 获取运行状态快照
func (e *Execution) State() *RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

// run 主循环，调用方持锁
func (e *Execution) run(ctx context.Context, from int) (*RunState, error) {
	for i := from; i < len(e.plan.Steps); i++ {
		if err := ctx.Err(); err != nil {
			return e.state(), err
		}

		step := e.plan.Steps[i]
		if step.Status == StatusCompleted || step.Status == StatusSkipped {
			continue
		}

		// 必填输入缺失：暂停，等待调用方收集
		if e.inputMissing(step) {
			step.Status = StatusWaitingInput
			e.waiting = i
			return e.state(), nil
		}

		step.Status = StatusInProgress
		e.executeStep(step)
	}

	e.waiting = -1
	return e.state(), nil
}

// inputMissing 步骤声明了必填输入且本次运行尚未收集到
func (e *Execution) inputMissing(step *Step) bool {
	if !step.RequiredInput.IsRequired() {
		return false
	}
	_, held := e.inputs[step.RequiredInput.Type]
	return !held
}

// executeStep 执行单个步骤的类型分支
// 任何异常都被捕获为 failed 状态，不会中断整体运行
func (e *Execution) executeStep(step *Step) {
	defer func() {
		if r := recover(); r != nil {
			step.Status = StatusFailed
			step.Result = fmt.Sprintf("step panicked: %v", r)
		}
	}()

	result, code, err := e.runAction(step)
	if err != nil {
		step.Status = StatusFailed
		step.Result = err.Error()
		return
	}

	step.Status = StatusCompleted
	step.Result = result
	step.Code = code
}

// runAction 按步骤类型分发
func (e *Execution) runAction(step *Step) (result, code string, err error) {
	switch step.Type {
	case StepCodeGeneration:
		filename, generated := generateCode(step)
		e.files[filename] = generated
		return fmt.Sprintf("Создан файл %s", filename), generated, nil

	case StepAPIRequest:
		if _, ok := e.inputs[InputAPIKey]; !ok {
			return "", "", errors.New("missing credential: api-request step requires an api key")
		}
		return "API-запрос выполнен успешно", "", nil

	case StepAnalysis:
		return "Анализ завершен, результаты готовы", "", nil

	case StepInfoRequest:
		if value, ok := e.inputs[InputInfo]; ok {
			return fmt.Sprintf("Использованы данные пользователя: %s", value), "", nil
		}
		return defaultInfoResult(step.Description), "", nil

	default:
		return "Задача выполнена успешно", "", nil
	}
}

// Files 返回本次运行产生的文件注册表副本
func (e *Execution) Files() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyFiles(e.files)
}

// state 生成深拷贝快照
// 快照在锁外被序列化，绝不暴露执行中仍会变化的内部对象
func (e *Execution) state() *RunState {
	done := true
	steps := make([]*Step, len(e.plan.Steps))
	for i, step := range e.plan.Steps {
		cp := *step
		if step.RequiredInput != nil {
			ri := *step.RequiredInput
			cp.RequiredInput = &ri
		}
		steps[i] = &cp
		if !step.Terminal() {
			done = false
		}
	}

	planCopy := *e.plan
	planCopy.Steps = steps

	return &RunState{
		Plan:         &planCopy,
		WaitingIndex: e.waiting,
		Done:         done,
		Files:        copyFiles(e.files),
	}
}

func copyFiles(files map[string]string) map[string]string {
	if len(files) == 0 {
		return nil
	}
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}

// generateCode 根据描述关键字确定性地生成代码产物
func generateCode(step *Step) (filename, code string) {
	desc := strings.ToLower(step.Description)

	switch {
	case strings.Contains(desc, "python"):
		return step.ID + ".py", fmt.Sprintf("#!/usr/bin/env python3\n# %s\n\ndef main():\n    print(%q)\n\nif __name__ == \"__main__\":\n    main()\n", step.Title, step.Title)
	case strings.Contains(desc, "html") || strings.Contains(desc, "страниц"):
		return step.ID + ".html", fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n  <h1>%s</h1>\n</body>\n</html>\n", step.Title, step.Title)
	case strings.Contains(desc, "javascript") || strings.Contains(desc, "js"):
		return step.ID + ".js", fmt.Sprintf("// %s\nfunction main() {\n  console.log(%q);\n}\n\nmain();\n", step.Title, step.Title)
	case strings.Contains(desc, "sql"):
		return step.ID + ".sql", fmt.Sprintf("-- %s\nSELECT 1;\n", step.Title)
	default:
		return step.ID + ".sh", fmt.Sprintf("#!/bin/sh\n# %s\necho %q\n", step.Title, step.Title)
	}
}

// defaultInfoResult 非必填 info-request 的默认结果，按关键字推导
func defaultInfoResult(description string) string {
	desc := strings.ToLower(description)

	switch {
	case strings.Contains(desc, "модел"):
		return "Выбрана модель по умолчанию: gpt-4o-mini"
	case strings.Contains(desc, "язык"):
		return "Выбран язык по умолчанию: русский"
	case strings.Contains(desc, "формат"):
		return "Выбран формат по умолчанию: JSON"
	default:
		return resultDefaults
	}
}
