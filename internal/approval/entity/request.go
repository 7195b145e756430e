package entity

import "time"

// 审批单状态常量
const (
	StatusPendingReview   = "pending_review"
	StatusPendingApproval = "pending_approval"
	StatusRequestMoreInfo = "request_more_info" // 历史存量数据可能携带，计算器不再产生
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelled       = "cancelled"
)

// 审批决定常量
const (
	DecisionApprove         = "approve"
	DecisionReject          = "reject"
	DecisionRequestMoreInfo = "request_more_info"
	DecisionNone            = ""
)

// 审批轨迹动作标签
const (
	ActionCreated          = "Created"
	ActionManagerDecision  = "Manager Decision"
	ActionDirectorDecision = "Director Decision"
	ActionReturned         = "Returned"
)

// IsDecision 是否为可识别的审批决定（不含空值）
func IsDecision(v string) bool {
	switch v {
	case DecisionApprove, DecisionReject, DecisionRequestMoreInfo:
		return true
	}
	return false
}

// DecisionLabel 审批决定的展示文案（用于沟通记录前缀）
func DecisionLabel(decision string) string {
	switch decision {
	case DecisionApprove:
		return "同意"
	case DecisionReject:
		return "驳回"
	case DecisionRequestMoreInfo:
		return "需补充材料"
	}
	return decision
}

// CreditLimitRequest 批发客户额度调整审批单
type CreditLimitRequest struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	Code       string `json:"code" gorm:"size:32;uniqueIndex;not null"` // CLR-2026-0001
	CustomerID string `json:"customer_id" gorm:"size:32;not null;index"`

	RequestType   string     `json:"request_type" gorm:"size:20"` // increase/decrease/temporary
	ProposedLimit float64    `json:"proposed_limit" gorm:"type:decimal(15,2)"`
	EffectiveDate *time.Time `json:"effective_date"`
	Note          string     `json:"note" gorm:"type:text"`

	Status string `json:"status" gorm:"size:20;not null;default:pending_review;index"`

	ManagerDecision  string     `json:"manager_decision" gorm:"size:20"`
	ManagerID        string     `json:"manager_id" gorm:"size:32"`
	ManagerDecidedAt *time.Time `json:"manager_decided_at"`

	DirectorDecision  string     `json:"director_decision" gorm:"size:20"`
	DirectorID        string     `json:"director_id" gorm:"size:32"`
	DirectorDecidedAt *time.Time `json:"director_decided_at"`

	CreatedBy   string `json:"created_by" gorm:"size:32;not null"`
	CancelledBy string `json:"cancelled_by" gorm:"size:32"`

	AuditLog    AuditLog    `json:"audit_log" gorm:"type:jsonb"`
	ExchangeLog ExchangeLog `json:"exchange_log" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (CreditLimitRequest) TableName() string {
	return "credit_limit_requests"
}

// Actor 当前操作人。由JWT中间件解析后显式传入每个操作，核心逻辑不读全局状态。
type Actor struct {
	ID      string
	Name    string
	IsAdmin bool // 持有 credit_admin 角色
}
