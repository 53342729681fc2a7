package staking

const (
	metricsStructName = "staking.client"

	stakeEventName          = "StakingStake"
	unstakeEventName        = "StakingUnstake"
	auditViolationEventName = "StakingAuditViolation"

	stakeCountMetricName          = "Staking/stakes"
	unstakeCountMetricName        = "Staking/unstakes"
	auditViolationCountMetricName = "Staking/audit_violations"
	auditDurationMetricName       = "Staking/audit_duration_ms"
)
