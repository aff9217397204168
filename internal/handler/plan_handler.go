package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akproject/ak-chat/internal/service"
	"github.com/akproject/ak-chat/internal/service/plan"
)

// PlanHandler 计划处理器
type PlanHandler struct {
	svc *service.Services
}

// NewPlanHandler 创建计划处理器
func NewPlanHandler(svc *service.Services) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// generatePlanRequest 生成计划请求
type generatePlanRequest struct {
	Task string `json:"task" binding:"required"`
}

// GeneratePlan 根据任务描述生成计划
// 模型响应不符合计划结构时整体失败，不产生部分计划
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req generatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.svc.PlanGen.Generate(c.Request.Context(), req.Task)
	if err != nil {
		var parseErr *plan.ParseError
		if errors.As(err, &parseErr) {
			badRequest(c, parseErr.Error())
			return
		}
		errorResponse(c, err)
		return
	}

	exec := plan.NewExecution(p)
	h.svc.Plans.Add(p.ID, exec)

	created(c, exec.State())
}

// GetPlan 获取计划运行状态
func (h *PlanHandler) GetPlan(c *gin.Context) {
	exec, ok := h.svc.Plans.Get(c.Param("id"))
	if !ok {
		notFound(c, "plan not found")
		return
	}
	success(c, exec.State())
}

// runPlanRequest 运行计划请求
type runPlanRequest struct {
	From int `json:"from"`
}

// RunPlan 从指定下标起执行计划
func (h *PlanHandler) RunPlan(c *gin.Context) {
	exec, ok := h.svc.Plans.Get(c.Param("id"))
	if !ok {
		notFound(c, "plan not found")
		return
	}

	var req runPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		badRequest(c, err.Error())
		return
	}

	state, err := exec.Run(c.Request.Context(), req.From)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, state)
}

// supplyInputRequest 补充输入请求
type supplyInputRequest struct {
	Value string `json:"value" binding:"required"`
}

// SupplyInput 为等待中的步骤提供输入并继续执行
func (h *PlanHandler) SupplyInput(c *gin.Context) {
	exec, ok := h.svc.Plans.Get(c.Param("id"))
	if !ok {
		notFound(c, "plan not found")
		return
	}

	var req supplyInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	state, err := exec.SupplyInput(c.Request.Context(), req.Value)
	if err != nil {
		if errors.Is(err, plan.ErrNotWaiting) {
			badRequest(c, err.Error())
			return
		}
		errorResponse(c, err)
		return
	}
	success(c, state)
}

// SkipStep 跳过步骤
func (h *PlanHandler) SkipStep(c *gin.Context) {
	exec, ok := h.svc.Plans.Get(c.Param("id"))
	if !ok {
		notFound(c, "plan not found")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid step index")
		return
	}

	state, err := exec.Skip(c.Request.Context(), index)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	success(c, state)
}

// editStepRequest 编辑步骤请求
type editStepRequest struct {
	Description string `json:"description" binding:"required"`
}

// EditStep 改写步骤描述
func (h *PlanHandler) EditStep(c *gin.Context) {
	exec, ok := h.svc.Plans.Get(c.Param("id"))
	if !ok {
		notFound(c, "plan not found")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid step index")
		return
	}

	var req editStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	state, err := exec.Edit(index, req.Description)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	success(c, state)
}
