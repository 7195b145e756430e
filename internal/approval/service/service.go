package service

import (
	"github.com/bitfantasy/credit/internal/approval/repository"
	"github.com/bitfantasy/credit/internal/shared/lock"
	"go.uber.org/zap"
)

// Services 审批模块服务集合
type Services struct {
	Request  *RequestService
	Customer *CustomerService
}

// NewServices 创建审批模块服务集合
func NewServices(repos *repository.Repositories, locker *lock.Locker, logger *zap.Logger) *Services {
	return &Services{
		Request:  NewRequestService(repos.Request, repos.Customer, locker, logger),
		Customer: NewCustomerService(repos.Customer),
	}
}
