package entity

import (
	"time"
)

// CustomerStatus 客户状态
const (
	CustomerStatusActive   = "ACTIVE"
	CustomerStatusInactive = "INACTIVE"
)

// Customer 批发客户，审批单调整的是它的信用额度
type Customer struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	CustomerCode string     `json:"customer_code" gorm:"size:50;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	ContactName  string     `json:"contact_name" gorm:"size:100"`
	Phone        string     `json:"phone" gorm:"size:20"`
	Email        string     `json:"email" gorm:"size:100"`
	Address      string     `json:"address" gorm:"size:500"`
	Channel      string     `json:"channel" gorm:"size:50"` // 销售渠道
	CreditLimit  float64    `json:"credit_limit" gorm:"type:decimal(15,2);default:0"`
	PaymentTerms string     `json:"payment_terms" gorm:"size:100"`
	Status       string     `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (Customer) TableName() string {
	return "wholesale_customers"
}
