package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/credit/internal/approval/entity"
	"github.com/bitfantasy/credit/internal/approval/repository"
	"github.com/bitfantasy/credit/internal/approval/service"
	"github.com/gin-gonic/gin"
)

// AdminRole 模块管理员角色名
const AdminRole = "credit_admin"

// Handlers 审批模块处理器集合
type Handlers struct {
	Request  *RequestHandler
	Customer *CustomerHandler
}

// NewHandlers 创建审批模块处理器集合
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Request:  NewRequestHandler(services.Request),
		Customer: NewCustomerHandler(services.Customer),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetUserName(c *gin.Context) string {
	userName, _ := c.Get("user_name")
	if name, ok := userName.(string); ok {
		return name
	}
	return ""
}

// CurrentActor 从JWT中间件写入的上下文构造操作人
func CurrentActor(c *gin.Context) entity.Actor {
	actor := entity.Actor{
		ID:   GetUserID(c),
		Name: GetUserName(c),
	}
	if roles, exists := c.Get("roles"); exists {
		if list, ok := roles.([]string); ok {
			for _, role := range list {
				if role == AdminRole {
					actor.IsAdmin = true
					break
				}
			}
		}
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// writeServiceError 业务错误到响应码的统一映射
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, entity.ErrEntryNotFound):
		NotFound(c, "沟通记录不存在")
	case errors.Is(err, service.ErrUnavailable):
		Error(c, 50300, "系统繁忙，请稍后重试")
	default:
		InternalError(c, err.Error())
	}
}
