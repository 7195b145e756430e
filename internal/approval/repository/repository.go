package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 审批模块仓库集合
type Repositories struct {
	Request  *RequestRepository
	Customer *CustomerRepository
}

// NewRepositories 创建审批模块仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Request:  NewRequestRepository(db),
		Customer: NewCustomerRepository(db),
	}
}
