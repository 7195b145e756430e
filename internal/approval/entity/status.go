package entity

// CalculateStatus 由两级审批决定与前一状态推导审批单状态。
// 纯函数：同样的输入永远得到同样的输出。已取消的单子保持取消，
// 总监的决定优先于经理的决定，未识别的决定值按未决定处理。
func CalculateStatus(managerDecision, directorDecision, previousStatus string) string {
	if previousStatus == StatusCancelled {
		return StatusCancelled
	}

	switch directorDecision {
	case DecisionReject:
		return StatusRejected
	case DecisionApprove:
		return StatusApproved
	case DecisionRequestMoreInfo:
		return StatusPendingReview
	}

	switch managerDecision {
	case DecisionReject:
		return StatusRejected
	case DecisionRequestMoreInfo:
		return StatusPendingReview
	case DecisionApprove:
		return StatusPendingApproval
	}

	return StatusPendingReview
}
