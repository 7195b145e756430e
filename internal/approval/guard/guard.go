// Package guard 审批动作权限判定。全部为纯函数：只看审批单和操作人，
// 不碰数据库，不产生副作用，判定结果带拒绝原因。
package guard

import (
	"github.com/bitfantasy/credit/internal/approval/entity"
)

// Result 判定结果。Allowed为false时Reason给出拒绝原因。
type Result struct {
	Allowed bool
	Reason  string
}

func allow() Result {
	return Result{Allowed: true}
}

func deny(reason string) Result {
	return Result{Allowed: false, Reason: reason}
}

// CanManagerDecide 经理可否决定：只能在待初审状态下操作
func CanManagerDecide(req *entity.CreditLimitRequest) Result {
	if req.Status != entity.StatusPendingReview {
		return deny("当前状态不允许经理审批")
	}
	return allow()
}

// CanDirectorDecideNormally 总监常规决定：单子在待终审且经理已同意
func CanDirectorDecideNormally(req *entity.CreditLimitRequest) Result {
	if req.Status != entity.StatusPendingApproval {
		return deny("当前状态不允许总监审批")
	}
	if req.ManagerDecision != entity.DecisionApprove {
		return deny("经理尚未同意")
	}
	return allow()
}

// CanDirectorOverride 总监越级决定：管理员可在经理未同意时直接拍板，
// 但不能推翻已有的总监决定，也不能改动已终结的单子
func CanDirectorOverride(req *entity.CreditLimitRequest, actor entity.Actor) Result {
	if !actor.IsAdmin {
		return deny("仅管理员可越级审批")
	}
	if req.DirectorDecision != entity.DecisionNone {
		return deny("总监已作出决定")
	}
	if req.Status == entity.StatusApproved || req.Status == entity.StatusRejected {
		return deny("审批已终结")
	}
	return allow()
}

// CanDirectorDecide 总监可否决定：常规路径或越级路径任一满足
func CanDirectorDecide(req *entity.CreditLimitRequest, actor entity.Actor) Result {
	if normal := CanDirectorDecideNormally(req); normal.Allowed {
		return normal
	}
	if override := CanDirectorOverride(req, actor); override.Allowed {
		return override
	}
	return deny("当前状态不允许总监审批")
}

// CanReturn 可否退回重审
func CanReturn(req *entity.CreditLimitRequest) Result {
	if req.Status != entity.StatusPendingApproval && req.Status != entity.StatusRequestMoreInfo {
		return deny("当前状态不允许退回")
	}
	return allow()
}

// CanCancel 可否撤销：仅创建人在待初审状态下可撤销
func CanCancel(req *entity.CreditLimitRequest, actor entity.Actor) Result {
	if req.CreatedBy != actor.ID {
		return deny("仅创建人可撤销")
	}
	if req.Status != entity.StatusPendingReview {
		return deny("当前状态不允许撤销")
	}
	return allow()
}

// CanDuplicate 可否复制：仅已撤销的单子可复制重提
func CanDuplicate(req *entity.CreditLimitRequest) Result {
	if req.Status != entity.StatusCancelled {
		return deny("仅已撤销的申请可复制")
	}
	return allow()
}

// CanDeleteExchangeEntry 可否删除沟通记录：仅管理员
func CanDeleteExchangeEntry(actor entity.Actor) Result {
	if !actor.IsAdmin {
		return deny("仅管理员可删除沟通记录")
	}
	return allow()
}
