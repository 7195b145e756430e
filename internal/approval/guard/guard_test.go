package guard

import (
	"testing"

	"github.com/bitfantasy/credit/internal/approval/entity"
)

func request(status, managerDecision, directorDecision, createdBy string) *entity.CreditLimitRequest {
	return &entity.CreditLimitRequest{
		Status:           status,
		ManagerDecision:  managerDecision,
		DirectorDecision: directorDecision,
		CreatedBy:        createdBy,
	}
}

var (
	admin    = entity.Actor{ID: "admin-1", Name: "管理员", IsAdmin: true}
	employee = entity.Actor{ID: "emp-1", Name: "员工"}
)

func TestCanManagerDecide(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{entity.StatusPendingReview, true},
		{entity.StatusPendingApproval, false},
		{entity.StatusRequestMoreInfo, false},
		{entity.StatusApproved, false},
		{entity.StatusRejected, false},
		{entity.StatusCancelled, false},
	}
	for _, tt := range tests {
		got := CanManagerDecide(request(tt.status, "", "", "emp-1"))
		if got.Allowed != tt.want {
			t.Errorf("CanManagerDecide(status=%s) = %v, want %v", tt.status, got.Allowed, tt.want)
		}
		if !got.Allowed && got.Reason == "" {
			t.Errorf("denied result for status=%s has no reason", tt.status)
		}
	}
}

func TestCanDirectorDecideNormally(t *testing.T) {
	if got := CanDirectorDecideNormally(request(entity.StatusPendingApproval, entity.DecisionApprove, "", "emp-1")); !got.Allowed {
		t.Errorf("pending_approval with manager approve should allow: %v", got.Reason)
	}
	if got := CanDirectorDecideNormally(request(entity.StatusPendingReview, "", "", "emp-1")); got.Allowed {
		t.Error("pending_review should not allow normal director decision")
	}
	// 经理没同意的单子不该出现在待终审，出现了也不放行
	if got := CanDirectorDecideNormally(request(entity.StatusPendingApproval, "", "", "emp-1")); got.Allowed {
		t.Error("missing manager approval should block")
	}
	if got := CanDirectorDecideNormally(request(entity.StatusPendingApproval, entity.DecisionReject, "", "emp-1")); got.Allowed {
		t.Error("manager reject should block normal director decision")
	}
	// 总监要求补充材料退回后的单子，常规路径不再放行
	if got := CanDirectorDecideNormally(request(entity.StatusPendingReview, entity.DecisionApprove, entity.DecisionRequestMoreInfo, "emp-1")); got.Allowed {
		t.Error("returned-for-info request should not allow normal director decision")
	}
}

func TestCanDirectorOverride(t *testing.T) {
	tests := []struct {
		name  string
		req   *entity.CreditLimitRequest
		actor entity.Actor
		want  bool
	}{
		{"admin on pending review", request(entity.StatusPendingReview, "", "", "emp-1"), admin, true},
		{"admin on pending approval", request(entity.StatusPendingApproval, entity.DecisionApprove, "", "emp-1"), admin, true},
		{"admin on cancelled", request(entity.StatusCancelled, "", "", "emp-1"), admin, true},
		{"non-admin denied", request(entity.StatusPendingReview, "", "", "emp-1"), employee, false},
		{"admin blocked by director decision", request(entity.StatusPendingApproval, entity.DecisionApprove, entity.DecisionApprove, "emp-1"), admin, false},
		{"admin blocked on approved", request(entity.StatusApproved, entity.DecisionApprove, entity.DecisionApprove, "emp-1"), admin, false},
		{"admin blocked on rejected", request(entity.StatusRejected, entity.DecisionReject, "", "emp-1"), admin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanDirectorOverride(tt.req, tt.actor)
			if got.Allowed != tt.want {
				t.Errorf("CanDirectorOverride = %v (%s), want %v", got.Allowed, got.Reason, tt.want)
			}
		})
	}
}

func TestCanDirectorDecide(t *testing.T) {
	// 常规路径
	if got := CanDirectorDecide(request(entity.StatusPendingApproval, entity.DecisionApprove, "", "emp-1"), employee); !got.Allowed {
		t.Errorf("normal path should allow non-admin: %v", got.Reason)
	}
	// 越级路径
	if got := CanDirectorDecide(request(entity.StatusPendingReview, "", "", "emp-1"), admin); !got.Allowed {
		t.Errorf("override path should allow admin: %v", got.Reason)
	}
	// 两条路径都不通
	if got := CanDirectorDecide(request(entity.StatusPendingReview, "", "", "emp-1"), employee); got.Allowed {
		t.Error("non-admin on pending_review should be denied")
	}
}

func TestCanReturn(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{entity.StatusPendingApproval, true},
		{entity.StatusRequestMoreInfo, true},
		{entity.StatusPendingReview, false},
		{entity.StatusApproved, false},
		{entity.StatusRejected, false},
		{entity.StatusCancelled, false},
	}
	for _, tt := range tests {
		got := CanReturn(request(tt.status, "", "", "emp-1"))
		if got.Allowed != tt.want {
			t.Errorf("CanReturn(status=%s) = %v, want %v", tt.status, got.Allowed, tt.want)
		}
	}
}

func TestCanCancel(t *testing.T) {
	if got := CanCancel(request(entity.StatusPendingReview, "", "", employee.ID), employee); !got.Allowed {
		t.Errorf("creator on pending_review should cancel: %v", got.Reason)
	}
	if got := CanCancel(request(entity.StatusPendingReview, "", "", "someone-else"), employee); got.Allowed {
		t.Error("non-creator should not cancel")
	}
	if got := CanCancel(request(entity.StatusPendingApproval, entity.DecisionApprove, "", employee.ID), employee); got.Allowed {
		t.Error("cancel after manager decision should be denied")
	}
	// 管理员也不能替创建人撤销
	if got := CanCancel(request(entity.StatusPendingReview, "", "", employee.ID), admin); got.Allowed {
		t.Error("admin who is not the creator should not cancel")
	}
}

func TestCanDuplicate(t *testing.T) {
	if got := CanDuplicate(request(entity.StatusCancelled, "", "", "emp-1")); !got.Allowed {
		t.Errorf("cancelled request should be duplicable: %v", got.Reason)
	}
	for _, status := range []string{entity.StatusPendingReview, entity.StatusPendingApproval,
		entity.StatusApproved, entity.StatusRejected} {
		if got := CanDuplicate(request(status, "", "", "emp-1")); got.Allowed {
			t.Errorf("status=%s should not be duplicable", status)
		}
	}
}

func TestCanDeleteExchangeEntry(t *testing.T) {
	if got := CanDeleteExchangeEntry(admin); !got.Allowed {
		t.Errorf("admin should delete exchange entries: %v", got.Reason)
	}
	if got := CanDeleteExchangeEntry(employee); got.Allowed {
		t.Error("non-admin should not delete exchange entries")
	}
}
