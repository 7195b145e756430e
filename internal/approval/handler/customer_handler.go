package handler

import (
	"github.com/bitfantasy/credit/internal/approval/service"
	"github.com/gin-gonic/gin"
)

// CustomerHandler 批发客户处理器
type CustomerHandler struct {
	svc *service.CustomerService
}

func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// CreateCustomer 创建客户
// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var payload service.CustomerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	customer, err := h.svc.Create(c.Request.Context(), CurrentActor(c), payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, customer)
}

// ListCustomers 客户列表
// GET /api/v1/customers?status=&keyword=
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := map[string]string{
		"status":  c.Query("status"),
		"keyword": c.Query("keyword"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "查询客户列表失败: "+err.Error())
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

// GetCustomer 客户详情
// GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, customer)
}

// UpdateCustomer 更新客户资料
// PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var payload service.CustomerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "参数格式错误: "+err.Error())
		return
	}

	customer, err := h.svc.Update(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, customer)
}

// DeactivateCustomer 停用客户
// DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeactivateCustomer(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}
