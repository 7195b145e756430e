package service

import (
	"context"
	"time"

	"github.com/bitfantasy/credit/internal/approval/entity"
	"github.com/bitfantasy/credit/internal/approval/repository"
	"github.com/google/uuid"
)

// CustomerService 批发客户服务
type CustomerService struct {
	repo *repository.CustomerRepository
}

func NewCustomerService(repo *repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// CustomerPayload 创建/更新客户入参
type CustomerPayload struct {
	CustomerCode string  `json:"customer_code"`
	Name         string  `json:"name"`
	ContactName  string  `json:"contact_name"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Address      string  `json:"address"`
	Channel      string  `json:"channel"`
	CreditLimit  float64 `json:"credit_limit"`
	PaymentTerms string  `json:"payment_terms"`
	Notes        string  `json:"notes"`
}

// Create 创建客户
func (s *CustomerService) Create(ctx context.Context, actor entity.Actor, payload CustomerPayload) (*entity.Customer, error) {
	if payload.CustomerCode == "" || payload.Name == "" {
		return nil, invalid("客户编码和名称不能为空")
	}
	if payload.CreditLimit < 0 {
		return nil, invalid("信用额度不能为负数")
	}

	customer := &entity.Customer{
		ID:           uuid.New().String()[:32],
		CustomerCode: payload.CustomerCode,
		Name:         payload.Name,
		ContactName:  payload.ContactName,
		Phone:        payload.Phone,
		Email:        payload.Email,
		Address:      payload.Address,
		Channel:      payload.Channel,
		CreditLimit:  payload.CreditLimit,
		PaymentTerms: payload.PaymentTerms,
		Status:       entity.CustomerStatusActive,
		Notes:        payload.Notes,
		CreatedBy:    actor.ID,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, storeErr(err)
	}
	return customer, nil
}

// Update 更新客户资料。信用额度不在此处改，走审批流程。
func (s *CustomerService) Update(ctx context.Context, id string, payload CustomerPayload) (*entity.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if payload.Name != "" {
		customer.Name = payload.Name
	}
	customer.ContactName = payload.ContactName
	customer.Phone = payload.Phone
	customer.Email = payload.Email
	customer.Address = payload.Address
	customer.Channel = payload.Channel
	customer.PaymentTerms = payload.PaymentTerms
	customer.Notes = payload.Notes

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, storeErr(err)
	}
	return customer, nil
}

// Deactivate 停用客户
func (s *CustomerService) Deactivate(ctx context.Context, id string) error {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	customer.Status = entity.CustomerStatusInactive
	now := time.Now()
	customer.DeletedAt = &now
	if err := s.repo.Update(ctx, customer); err != nil {
		return storeErr(err)
	}
	return nil
}

// Get 查询客户详情
func (s *CustomerService) Get(ctx context.Context, id string) (*entity.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return customer, nil
}

// List 查询客户列表
func (s *CustomerService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Customer, int64, error) {
	customers, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return customers, total, nil
}
