package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bitfantasy/credit/internal/approval/entity"
	"github.com/bitfantasy/credit/internal/approval/repository"
	"github.com/bitfantasy/credit/internal/approval/testutil"
	"go.uber.org/zap"
)

var (
	creator  = entity.Actor{ID: "emp-001", Name: "王小明"}
	manager  = entity.Actor{ID: "mgr-001", Name: "赵经理"}
	director = entity.Actor{ID: "dir-001", Name: "钱总监"}
	sysAdmin = entity.Actor{ID: "adm-001", Name: "管理员", IsAdmin: true}
)

func setupRequestTest(t *testing.T) (*RequestService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	testutil.SeedTestCustomer(t, db, "cust-001", "WC-001", "华东批发商", 50000)
	svc := NewRequestService(repos.Request, repos.Customer, nil, zap.NewNop())
	return svc, repos
}

func createRequest(t *testing.T, svc *RequestService) *entity.CreditLimitRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), creator, CreateRequestPayload{
		CustomerID:    "cust-001",
		RequestType:   "increase",
		ProposedLimit: 80000,
		Note:          "旺季备货需要提高额度",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return req
}

func TestCreateRequest(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	if req.Status != entity.StatusPendingReview {
		t.Errorf("status = %s, want pending_review", req.Status)
	}
	if !strings.HasPrefix(req.Code, "CLR-") {
		t.Errorf("code = %s, want CLR- prefix", req.Code)
	}
	if len(req.AuditLog) != 1 {
		t.Fatalf("audit log len = %d, want 1", len(req.AuditLog))
	}
	if req.AuditLog[0].Action != entity.ActionCreated {
		t.Errorf("audit action = %s, want Created", req.AuditLog[0].Action)
	}
	if req.CreatedBy != creator.ID {
		t.Errorf("created_by = %s, want %s", req.CreatedBy, creator.ID)
	}
}

func TestCreateRequestUnknownCustomer(t *testing.T) {
	svc, _ := setupRequestTest(t)
	_, err := svc.Create(context.Background(), creator, CreateRequestPayload{
		CustomerID:    "no-such-customer",
		ProposedLimit: 10000,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestNormalApprovalPath(t *testing.T) {
	svc, repos := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	afterManager, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove, Note: "额度合理"})
	if err != nil {
		t.Fatalf("ManagerDecide failed: %v", err)
	}
	if afterManager.Status != entity.StatusPendingApproval {
		t.Errorf("status after manager approve = %s, want pending_approval", afterManager.Status)
	}

	afterDirector, err := svc.DirectorDecide(ctx, req.ID, director, DecidePayload{Decision: entity.DecisionApprove})
	if err != nil {
		t.Fatalf("DirectorDecide failed: %v", err)
	}
	if afterDirector.Status != entity.StatusApproved {
		t.Errorf("status after director approve = %s, want approved", afterDirector.Status)
	}
	if len(afterDirector.AuditLog) != 3 {
		t.Fatalf("audit log len = %d, want 3", len(afterDirector.AuditLog))
	}
	if afterDirector.AuditLog[1].Level != entity.LevelManager || afterDirector.AuditLog[2].Level != entity.LevelDirector {
		t.Errorf("audit levels = %s, %s", afterDirector.AuditLog[1].Level, afterDirector.AuditLog[2].Level)
	}

	// 终审通过后客户额度同步
	customer, err := repos.Customer.FindByID(ctx, "cust-001")
	if err != nil {
		t.Fatalf("FindByID customer failed: %v", err)
	}
	if customer.CreditLimit != 80000 {
		t.Errorf("customer credit limit = %.2f, want 80000", customer.CreditLimit)
	}

	// 落库后的状态也一致
	stored, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != entity.StatusApproved {
		t.Errorf("stored status = %s, want approved", stored.Status)
	}
}

func TestDirectorBlockedBeforeManagerApproval(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	_, err := svc.DirectorDecide(context.Background(), req.ID, director, DecidePayload{Decision: entity.DecisionApprove})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestAdminOverride(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	result, err := svc.DirectorDecide(context.Background(), req.ID, sysAdmin,
		DecidePayload{Decision: entity.DecisionApprove, Override: true})
	if err != nil {
		t.Fatalf("override DirectorDecide failed: %v", err)
	}
	if result.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved", result.Status)
	}
	last := result.AuditLog[len(result.AuditLog)-1]
	if last.Action != "Director Decision (Override)" {
		t.Errorf("audit action = %q, want Director Decision (Override)", last.Action)
	}
}

func TestOverrideDeniedForNonAdmin(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	_, err := svc.DirectorDecide(context.Background(), req.ID, director,
		DecidePayload{Decision: entity.DecisionApprove, Override: true})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestReturnKeepsDecisions(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove}); err != nil {
		t.Fatalf("ManagerDecide failed: %v", err)
	}

	returned, err := svc.Return(ctx, req.ID, sysAdmin, "材料需要补全")
	if err != nil {
		t.Fatalf("Return failed: %v", err)
	}
	if returned.Status != entity.StatusPendingReview {
		t.Errorf("status after return = %s, want pending_review", returned.Status)
	}
	if returned.ManagerDecision != entity.DecisionApprove {
		t.Errorf("manager decision cleared by return: %q", returned.ManagerDecision)
	}

	// 退回后经理重新决定，基于保留的决定重算状态
	redecided, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove})
	if err != nil {
		t.Fatalf("ManagerDecide after return failed: %v", err)
	}
	if redecided.Status != entity.StatusPendingApproval {
		t.Errorf("status after re-decide = %s, want pending_approval", redecided.Status)
	}
	if len(redecided.AuditLog) != 4 {
		t.Errorf("audit log len = %d, want 4", len(redecided.AuditLog))
	}
}

func TestDirectorRequestMoreInfoThenRedecide(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove}); err != nil {
		t.Fatalf("ManagerDecide failed: %v", err)
	}

	afterRMI, err := svc.DirectorDecide(ctx, req.ID, director,
		DecidePayload{Decision: entity.DecisionRequestMoreInfo, Note: "补充近半年回款记录"})
	if err != nil {
		t.Fatalf("director request_more_info failed: %v", err)
	}
	if afterRMI.Status != entity.StatusPendingReview {
		t.Errorf("status after director RMI = %s, want pending_review", afterRMI.Status)
	}

	// 经理重新同意：过期的总监决定被清掉，状态回到待终审
	redecided, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove})
	if err != nil {
		t.Fatalf("ManagerDecide after RMI failed: %v", err)
	}
	if redecided.Status != entity.StatusPendingApproval {
		t.Errorf("status after re-decide = %s, want pending_approval", redecided.Status)
	}
	if redecided.DirectorDecision != "" {
		t.Errorf("stale director decision not cleared: %q", redecided.DirectorDecision)
	}

	stored, err := svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.DirectorDecision != "" || stored.DirectorID != "" || stored.DirectorDecidedAt != nil {
		t.Errorf("stale director fields persisted: %q %q %v",
			stored.DirectorDecision, stored.DirectorID, stored.DirectorDecidedAt)
	}

	// 总监现在可以正常终审
	final, err := svc.DirectorDecide(ctx, req.ID, director, DecidePayload{Decision: entity.DecisionApprove})
	if err != nil {
		t.Fatalf("DirectorDecide after re-decide failed: %v", err)
	}
	if final.Status != entity.StatusApproved {
		t.Errorf("final status = %s, want approved", final.Status)
	}
	if len(final.AuditLog) != 5 {
		t.Errorf("audit log len = %d, want 5", len(final.AuditLog))
	}
}

func TestDecisionExchangeNote(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	afterManager, err := svc.ManagerDecide(ctx, req.ID, manager,
		DecidePayload{Decision: entity.DecisionApprove, ExchangeNote: "请尽快安排终审"})
	if err != nil {
		t.Fatalf("ManagerDecide failed: %v", err)
	}
	if len(afterManager.ExchangeLog) != 1 {
		t.Fatalf("exchange log len = %d, want 1", len(afterManager.ExchangeLog))
	}
	if afterManager.ExchangeLog[0].Content != "同意: 请尽快安排终审" {
		t.Errorf("exchange content = %q, want decision-label prefix", afterManager.ExchangeLog[0].Content)
	}
	if len(afterManager.AuditLog) != 2 {
		t.Errorf("audit log len = %d, want 2 (exchange note must not touch the audit log)", len(afterManager.AuditLog))
	}

	afterDirector, err := svc.DirectorDecide(ctx, req.ID, director,
		DecidePayload{Decision: entity.DecisionReject, Note: "风险过高", ExchangeNote: "额度与流水不匹配"})
	if err != nil {
		t.Fatalf("DirectorDecide failed: %v", err)
	}
	if len(afterDirector.ExchangeLog) != 2 {
		t.Fatalf("exchange log len = %d, want 2", len(afterDirector.ExchangeLog))
	}
	if afterDirector.ExchangeLog[1].Content != "驳回: 额度与流水不匹配" {
		t.Errorf("exchange content = %q, want decision-label prefix", afterDirector.ExchangeLog[1].Content)
	}

	// 不填就不写
	stored, _ := svc.Get(ctx, req.ID)
	if len(stored.ExchangeLog) != 2 {
		t.Errorf("stored exchange log len = %d, want 2", len(stored.ExchangeLog))
	}
}

func TestStoreFailureMapsToUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	testutil.SeedTestCustomer(t, db, "cust-001", "WC-001", "华东批发商", 50000)
	svc := NewRequestService(repos.Request, repos.Customer, nil, zap.NewNop())
	req := createRequest(t, svc)
	ctx := context.Background()

	// 表没了，读写都按可重试的不可用处理
	if err := db.Exec("DROP TABLE credit_limit_requests").Error; err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	if _, err := svc.Get(ctx, req.ID); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get err = %v, want ErrUnavailable", err)
	}
	if _, _, err := svc.List(ctx, 1, 20, nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("List err = %v, want ErrUnavailable", err)
	}
	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionApprove}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ManagerDecide err = %v, want ErrUnavailable", err)
	}
	if _, err := svc.Create(ctx, creator, CreateRequestPayload{CustomerID: "cust-001", ProposedLimit: 1000}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create err = %v, want ErrUnavailable", err)
	}
}

func TestCancelWritesExchangeNotAudit(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	cancelled, err := svc.Cancel(context.Background(), req.ID, creator, "客户暂缓合作")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != entity.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledBy != creator.ID {
		t.Errorf("cancelled_by = %s, want %s", cancelled.CancelledBy, creator.ID)
	}
	if len(cancelled.AuditLog) != 1 {
		t.Errorf("audit log grew on cancel: len = %d, want 1", len(cancelled.AuditLog))
	}
	if len(cancelled.ExchangeLog) != 1 {
		t.Fatalf("exchange log len = %d, want 1", len(cancelled.ExchangeLog))
	}
	if !strings.HasPrefix(cancelled.ExchangeLog[0].Content, "[CANCELLED]: ") {
		t.Errorf("exchange content = %q, want [CANCELLED]: prefix", cancelled.ExchangeLog[0].Content)
	}
}

func TestCancelDeniedForNonCreator(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	_, err := svc.Cancel(context.Background(), req.ID, manager, "不相关人员")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestDuplicateCopiesBusinessFieldsOnly(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, req.ID, creator, "先撤了"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	dup, err := svc.Duplicate(ctx, req.ID, creator)
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if dup.ID == req.ID || dup.Code == req.Code {
		t.Error("duplicate must get fresh id and code")
	}
	if dup.CustomerID != req.CustomerID || dup.ProposedLimit != req.ProposedLimit || dup.Note != req.Note {
		t.Error("business fields not copied")
	}
	if dup.Status != entity.StatusPendingReview {
		t.Errorf("duplicate status = %s, want pending_review", dup.Status)
	}
	if dup.ManagerDecision != "" || dup.DirectorDecision != "" || dup.CancelledBy != "" {
		t.Error("decisions must not be copied")
	}
	if len(dup.AuditLog) != 1 || len(dup.ExchangeLog) != 0 {
		t.Errorf("logs not reset: audit=%d exchange=%d", len(dup.AuditLog), len(dup.ExchangeLog))
	}
}

func TestDuplicateRequiresCancelled(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)

	_, err := svc.Duplicate(context.Background(), req.ID, creator)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRejectRequiresNote(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionReject}); !errors.Is(err, ErrValidation) {
		t.Errorf("reject without note: err = %v, want ErrValidation", err)
	}
	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: entity.DecisionRequestMoreInfo}); !errors.Is(err, ErrValidation) {
		t.Errorf("request_more_info without note: err = %v, want ErrValidation", err)
	}
	if _, err := svc.ManagerDecide(ctx, req.ID, manager, DecidePayload{Decision: "perhaps", Note: "x"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unrecognized decision: err = %v, want ErrValidation", err)
	}
}

func TestExchangeAppendAndDelete(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	withEntry, err := svc.AppendExchange(ctx, req.ID, manager, "请补充近三月回款流水", "")
	if err != nil {
		t.Fatalf("AppendExchange failed: %v", err)
	}
	if len(withEntry.ExchangeLog) != 1 {
		t.Fatalf("exchange log len = %d, want 1", len(withEntry.ExchangeLog))
	}
	entryID := withEntry.ExchangeLog[0].ID

	// 普通用户不能删
	if _, err := svc.DeleteExchangeEntry(ctx, req.ID, manager, entryID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin delete: err = %v, want ErrForbidden", err)
	}

	// 管理员按ID删
	after, err := svc.DeleteExchangeEntry(ctx, req.ID, sysAdmin, entryID)
	if err != nil {
		t.Fatalf("admin DeleteExchangeEntry failed: %v", err)
	}
	if len(after.ExchangeLog) != 0 {
		t.Errorf("exchange log len after delete = %d, want 0", len(after.ExchangeLog))
	}

	if _, err := svc.DeleteExchangeEntry(ctx, req.ID, sysAdmin, "no-such-entry"); !errors.Is(err, entity.ErrEntryNotFound) {
		t.Errorf("missing entry: err = %v, want ErrEntryNotFound", err)
	}

	if _, err := svc.AppendExchange(ctx, req.ID, manager, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty content: err = %v, want ErrValidation", err)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, _ := setupRequestTest(t)
	req := createRequest(t, svc)
	ctx := context.Background()

	if err := svc.Delete(ctx, req.ID, creator); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin delete: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, req.ID, sysAdmin); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, req.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestBatchDelete(t *testing.T) {
	svc, _ := setupRequestTest(t)
	first := createRequest(t, svc)
	second := createRequest(t, svc)
	ctx := context.Background()

	if _, err := svc.BatchDelete(ctx, nil, sysAdmin); !errors.Is(err, ErrValidation) {
		t.Errorf("empty ids: err = %v, want ErrValidation", err)
	}

	deleted, err := svc.BatchDelete(ctx, []string{first.ID, second.ID, "missing"}, sysAdmin)
	if err != nil {
		t.Fatalf("BatchDelete failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
}
