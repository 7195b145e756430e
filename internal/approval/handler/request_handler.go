package handler

import (
	"github.com/bitfantasy/credit/internal/approval/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 额度审批单处理器
type RequestHandler struct {
	svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// CreateRequest 创建审批单
// POST /api/v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var payload service.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.Create(c.Request.Context(), CurrentActor(c), payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, req)
}

// ListRequests 审批单列表
// GET /api/v1/requests?status=&customer_id=&mine=
func (h *RequestHandler) ListRequests(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := map[string]string{
		"status":      c.Query("status"),
		"customer_id": c.Query("customer_id"),
	}
	if c.Query("mine") == "true" {
		filters["created_by"] = GetUserID(c)
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "查询审批单列表失败: "+err.Error())
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: (int(total) + pageSize - 1) / pageSize,
		},
	})
}

// GetRequest 审批单详情
// GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// ManagerDecide 经理审批
// PUT /api/v1/requests/:id/manager-decision
func (h *RequestHandler) ManagerDecide(c *gin.Context) {
	var payload service.DecidePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.ManagerDecide(c.Request.Context(), c.Param("id"), CurrentActor(c), payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// DirectorDecide 总监审批（含管理员越级）
// PUT /api/v1/requests/:id/director-decision
func (h *RequestHandler) DirectorDecide(c *gin.Context) {
	var payload service.DecidePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.DirectorDecide(c.Request.Context(), c.Param("id"), CurrentActor(c), payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// ReturnRequest 退回重审
// POST /api/v1/requests/:id/return
func (h *RequestHandler) ReturnRequest(c *gin.Context) {
	var payload struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.Return(c.Request.Context(), c.Param("id"), CurrentActor(c), payload.Note)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// CancelRequest 撤销申请
// POST /api/v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), CurrentActor(c), payload.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// DuplicateRequest 复制已撤销的申请
// POST /api/v1/requests/:id/duplicate
func (h *RequestHandler) DuplicateRequest(c *gin.Context) {
	req, err := h.svc.Duplicate(c.Request.Context(), c.Param("id"), CurrentActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, req)
}

// AppendExchange 追加沟通记录
// POST /api/v1/requests/:id/exchange
func (h *RequestHandler) AppendExchange(c *gin.Context) {
	var payload struct {
		Content string `json:"content"`
		Kind    string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	req, err := h.svc.AppendExchange(c.Request.Context(), c.Param("id"), CurrentActor(c), payload.Content, payload.Kind)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// DeleteExchangeEntry 删除沟通记录
// DELETE /api/v1/requests/:id/exchange/:entryId
func (h *RequestHandler) DeleteExchangeEntry(c *gin.Context) {
	req, err := h.svc.DeleteExchangeEntry(c.Request.Context(), c.Param("id"), CurrentActor(c), c.Param("entryId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, req)
}

// DeleteRequest 删除审批单
// DELETE /api/v1/requests/:id
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), CurrentActor(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// BatchDeleteRequests 批量删除审批单
// POST /api/v1/requests/batch-delete
func (h *RequestHandler) BatchDeleteRequests(c *gin.Context) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	deleted, err := h.svc.BatchDelete(c.Request.Context(), payload.IDs, CurrentActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": deleted})
}
