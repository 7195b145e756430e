package service

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/credit/internal/approval/entity"
	"github.com/bitfantasy/credit/internal/approval/guard"
	"github.com/bitfantasy/credit/internal/approval/repository"
	"github.com/bitfantasy/credit/internal/shared/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService 审批单生命周期服务。所有状态流转集中在这里：
// 加锁、读单、判权限、算状态、一次落库。
type RequestService struct {
	repo         *repository.RequestRepository
	customerRepo *repository.CustomerRepository
	locker       *lock.Locker
	logger       *zap.Logger
}

func NewRequestService(repo *repository.RequestRepository, customerRepo *repository.CustomerRepository, locker *lock.Locker, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		repo:         repo,
		customerRepo: customerRepo,
		locker:       locker,
		logger:       logger,
	}
}

// CreateRequestPayload 创建审批单入参
type CreateRequestPayload struct {
	CustomerID    string     `json:"customer_id"`
	RequestType   string     `json:"request_type"`
	ProposedLimit float64    `json:"proposed_limit"`
	EffectiveDate *time.Time `json:"effective_date"`
	Note          string     `json:"note"`
}

// DecidePayload 审批决定入参
type DecidePayload struct {
	Decision     string `json:"decision"`
	Note         string `json:"note"`
	ExchangeNote string `json:"exchange_note"` // 选填，带决定文案前缀写入沟通记录
	Override     bool   `json:"override"`      // 仅总监决定使用
}

func (s *RequestService) lockRequest(ctx context.Context, id string) (func(), error) {
	release, err := s.locker.Acquire(ctx, "credit:request:"+id)
	if err != nil {
		if errors.Is(err, lock.ErrLockBusy) {
			s.logger.Warn("request transition lock busy", zap.String("request_id", id))
		}
		return nil, unavailable(err)
	}
	return release, nil
}

// Create 创建额度调整审批单
func (s *RequestService) Create(ctx context.Context, actor entity.Actor, payload CreateRequestPayload) (*entity.CreditLimitRequest, error) {
	if payload.CustomerID == "" {
		return nil, invalid("客户不能为空")
	}
	if payload.ProposedLimit < 0 {
		return nil, invalid("申请额度不能为负数")
	}

	if _, err := s.customerRepo.FindByID(ctx, payload.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("客户不存在")
		}
		return nil, unavailable(err)
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	req := &entity.CreditLimitRequest{
		ID:            uuid.New().String()[:32],
		Code:          code,
		CustomerID:    payload.CustomerID,
		RequestType:   payload.RequestType,
		ProposedLimit: payload.ProposedLimit,
		EffectiveDate: payload.EffectiveDate,
		Note:          payload.Note,
		Status:        entity.StatusPendingReview,
		CreatedBy:     actor.ID,
		AuditLog: entity.AuditLog{
			entity.NewAuditLogEntry(entity.ActionCreated, actor, "", ""),
		},
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("credit limit request created",
		zap.String("request_id", req.ID),
		zap.String("code", req.Code),
		zap.String("customer_id", req.CustomerID))
	return req, nil
}

// ManagerDecide 经理审批
func (s *RequestService) ManagerDecide(ctx context.Context, id string, actor entity.Actor, payload DecidePayload) (*entity.CreditLimitRequest, error) {
	if err := validateDecision(payload); err != nil {
		return nil, err
	}

	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if result := guard.CanManagerDecide(req); !result.Allowed {
		return nil, forbidden(result.Reason)
	}

	now := time.Now()
	req.ManagerDecision = payload.Decision
	req.ManagerID = actor.ID
	req.ManagerDecidedAt = &now

	fields := map[string]interface{}{
		"manager_decision":   req.ManagerDecision,
		"manager_id":         req.ManagerID,
		"manager_decided_at": req.ManagerDecidedAt,
	}

	// 总监要求过补充材料的单子，经理重新决定时这条总监决定已经过期，
	// 不清掉的话状态永远回不到待终审
	if req.DirectorDecision == entity.DecisionRequestMoreInfo {
		req.DirectorDecision = entity.DecisionNone
		req.DirectorID = ""
		req.DirectorDecidedAt = nil
		fields["director_decision"] = ""
		fields["director_id"] = ""
		fields["director_decided_at"] = nil
	}

	req.Status = entity.CalculateStatus(req.ManagerDecision, req.DirectorDecision, req.Status)
	req.AuditLog = req.AuditLog.Append(
		entity.NewAuditLogEntry(entity.ActionManagerDecision, actor, payload.Note, entity.LevelManager))
	fields["status"] = req.Status
	fields["audit_log"] = req.AuditLog

	if payload.ExchangeNote != "" {
		req.ExchangeLog = req.ExchangeLog.Append(entity.NewExchangeEntry(
			entity.DecisionLabel(payload.Decision)+": "+payload.ExchangeNote, actor, "decision"))
		fields["exchange_log"] = req.ExchangeLog
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("manager decision recorded",
		zap.String("request_id", id),
		zap.String("decision", payload.Decision),
		zap.String("status", req.Status))
	return req, nil
}

// DirectorDecide 总监审批。Override为真时走管理员越级路径。
func (s *RequestService) DirectorDecide(ctx context.Context, id string, actor entity.Actor, payload DecidePayload) (*entity.CreditLimitRequest, error) {
	if err := validateDecision(payload); err != nil {
		return nil, err
	}

	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if payload.Override {
		if result := guard.CanDirectorOverride(req, actor); !result.Allowed {
			return nil, forbidden(result.Reason)
		}
	} else {
		if result := guard.CanDirectorDecide(req, actor); !result.Allowed {
			return nil, forbidden(result.Reason)
		}
	}

	action := entity.ActionDirectorDecision
	if payload.Override {
		action += " (Override)"
	}

	now := time.Now()
	req.DirectorDecision = payload.Decision
	req.DirectorID = actor.ID
	req.DirectorDecidedAt = &now
	req.Status = entity.CalculateStatus(req.ManagerDecision, req.DirectorDecision, req.Status)
	req.AuditLog = req.AuditLog.Append(
		entity.NewAuditLogEntry(action, actor, payload.Note, entity.LevelDirector))

	fields := map[string]interface{}{
		"director_decision":   req.DirectorDecision,
		"director_id":         req.DirectorID,
		"director_decided_at": req.DirectorDecidedAt,
		"status":              req.Status,
		"audit_log":           req.AuditLog,
	}

	if payload.ExchangeNote != "" {
		req.ExchangeLog = req.ExchangeLog.Append(entity.NewExchangeEntry(
			entity.DecisionLabel(payload.Decision)+": "+payload.ExchangeNote, actor, "decision"))
		fields["exchange_log"] = req.ExchangeLog
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("director decision recorded",
		zap.String("request_id", id),
		zap.String("decision", payload.Decision),
		zap.Bool("override", payload.Override),
		zap.String("status", req.Status))

	if req.Status == entity.StatusApproved {
		s.syncCustomerCreditLimit(ctx, req)
	}
	return req, nil
}

// syncCustomerCreditLimit 审批通过后回写客户额度。失败只记日志，不回滚审批结果。
func (s *RequestService) syncCustomerCreditLimit(ctx context.Context, req *entity.CreditLimitRequest) {
	if err := s.customerRepo.UpdateCreditLimit(ctx, req.CustomerID, req.ProposedLimit); err != nil {
		s.logger.Error("failed to sync customer credit limit",
			zap.String("request_id", req.ID),
			zap.String("customer_id", req.CustomerID),
			zap.Float64("proposed_limit", req.ProposedLimit),
			zap.Error(err))
		return
	}
	s.logger.Info("customer credit limit updated",
		zap.String("customer_id", req.CustomerID),
		zap.Float64("credit_limit", req.ProposedLimit))
}

// Return 退回重审。强制回到待初审，不清除已有的审批决定，
// 后续任何一次重新决定都会基于全部决定重算状态。
func (s *RequestService) Return(ctx context.Context, id string, actor entity.Actor, note string) (*entity.CreditLimitRequest, error) {
	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if result := guard.CanReturn(req); !result.Allowed {
		return nil, forbidden(result.Reason)
	}

	req.Status = entity.StatusPendingReview
	req.AuditLog = req.AuditLog.Append(
		entity.NewAuditLogEntry(entity.ActionReturned, actor, note, ""))

	err = s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"status":    req.Status,
		"audit_log": req.AuditLog,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("request returned for review", zap.String("request_id", id))
	return req, nil
}

// Cancel 撤销申请。撤销原因写入沟通记录而非审批轨迹。
func (s *RequestService) Cancel(ctx context.Context, id string, actor entity.Actor, reason string) (*entity.CreditLimitRequest, error) {
	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if result := guard.CanCancel(req, actor); !result.Allowed {
		return nil, forbidden(result.Reason)
	}

	req.Status = entity.StatusCancelled
	req.CancelledBy = actor.ID
	req.ExchangeLog = req.ExchangeLog.Append(
		entity.NewExchangeEntry("[CANCELLED]: "+reason, actor, "cancellation"))

	err = s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"status":       req.Status,
		"cancelled_by": req.CancelledBy,
		"exchange_log": req.ExchangeLog,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("request cancelled", zap.String("request_id", id), zap.String("cancelled_by", actor.ID))
	return req, nil
}

// Duplicate 复制已撤销的申请重新提交。只复制业务字段，
// 状态、审批决定、两份日志和时间戳全部重置。
func (s *RequestService) Duplicate(ctx context.Context, id string, actor entity.Actor) (*entity.CreditLimitRequest, error) {
	src, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	if result := guard.CanDuplicate(src); !result.Allowed {
		return nil, forbidden(result.Reason)
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	dup := &entity.CreditLimitRequest{
		ID:            uuid.New().String()[:32],
		Code:          code,
		CustomerID:    src.CustomerID,
		RequestType:   src.RequestType,
		ProposedLimit: src.ProposedLimit,
		EffectiveDate: src.EffectiveDate,
		Note:          src.Note,
		Status:        entity.StatusPendingReview,
		CreatedBy:     actor.ID,
		AuditLog: entity.AuditLog{
			entity.NewAuditLogEntry(entity.ActionCreated, actor, "复制自 "+src.Code, ""),
		},
	}

	if err := s.repo.Create(ctx, dup); err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("request duplicated",
		zap.String("source_id", src.ID),
		zap.String("request_id", dup.ID),
		zap.String("code", dup.Code))
	return dup, nil
}

// AppendExchange 追加沟通记录
func (s *RequestService) AppendExchange(ctx context.Context, id string, actor entity.Actor, content, kind string) (*entity.CreditLimitRequest, error) {
	if content == "" {
		return nil, invalid("沟通内容不能为空")
	}

	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	req.ExchangeLog = req.ExchangeLog.Append(entity.NewExchangeEntry(content, actor, kind))

	err = s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"exchange_log": req.ExchangeLog,
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return req, nil
}

// DeleteExchangeEntry 删除一条沟通记录，仅管理员
func (s *RequestService) DeleteExchangeEntry(ctx context.Context, id string, actor entity.Actor, entryID string) (*entity.CreditLimitRequest, error) {
	if result := guard.CanDeleteExchangeEntry(actor); !result.Allowed {
		return nil, forbidden(result.Reason)
	}

	release, err := s.lockRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	updated, err := req.ExchangeLog.RemoveByID(entryID)
	if err != nil {
		return nil, err
	}
	req.ExchangeLog = updated

	err = s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"exchange_log": req.ExchangeLog,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.logger.Info("exchange entry deleted",
		zap.String("request_id", id),
		zap.String("entry_id", entryID),
		zap.String("operator", actor.ID))
	return req, nil
}

// Delete 删除审批单，仅管理员
func (s *RequestService) Delete(ctx context.Context, id string, actor entity.Actor) error {
	if !actor.IsAdmin {
		return forbidden("仅管理员可删除审批单")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	s.logger.Info("request deleted", zap.String("request_id", id), zap.String("operator", actor.ID))
	return nil
}

// BatchDelete 批量删除审批单，仅管理员
func (s *RequestService) BatchDelete(ctx context.Context, ids []string, actor entity.Actor) (int64, error) {
	if !actor.IsAdmin {
		return 0, forbidden("仅管理员可删除审批单")
	}
	if len(ids) == 0 {
		return 0, invalid("请选择要删除的审批单")
	}
	deleted, err := s.repo.BatchDelete(ctx, ids)
	if err != nil {
		return 0, storeErr(err)
	}
	s.logger.Info("requests batch deleted", zap.Int64("count", deleted), zap.String("operator", actor.ID))
	return deleted, nil
}

// Get 查询审批单详情
func (s *RequestService) Get(ctx context.Context, id string) (*entity.CreditLimitRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return req, nil
}

// List 查询审批单列表
func (s *RequestService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.CreditLimitRequest, int64, error) {
	items, total, err := s.repo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

// validateDecision 决定值必须可识别；驳回和要求补充材料必须写明理由
func validateDecision(payload DecidePayload) error {
	if !entity.IsDecision(payload.Decision) {
		return invalid("无效的审批决定")
	}
	if payload.Note == "" &&
		(payload.Decision == entity.DecisionReject || payload.Decision == entity.DecisionRequestMoreInfo) {
		return invalid("驳回或要求补充材料时必须填写理由")
	}
	return nil
}
