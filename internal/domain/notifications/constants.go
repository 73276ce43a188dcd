package notifications

const (
	TypeAssignmentCreated   = "assignment_created"
	TypeEvaluationSubmitted = "evaluation_submitted"
	TypeEvaluationReopened  = "evaluation_reopened"
	TypePlanGenerated       = "plan_generated"
	TypePlanApproved        = "plan_approved"
	TypePeriodActivated     = "period_activated"
	TypePeriodClosed        = "period_closed"
)
