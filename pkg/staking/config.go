package staking

import (
	"time"

	"github.com/code-payments/nft-staking/pkg/config"
	"github.com/code-payments/nft-staking/pkg/config/env"
	"github.com/code-payments/nft-staking/pkg/config/memory"
	"github.com/code-payments/nft-staking/pkg/config/wrapper"
)

const (
	envConfigPrefix = "STAKING_"

	AppendBatchSizeConfigEnvName = envConfigPrefix + "APPEND_BATCH_SIZE"
	defaultAppendBatchSize       = 20

	SubmitMaxAttemptsConfigEnvName = envConfigPrefix + "SUBMIT_MAX_ATTEMPTS"
	defaultSubmitMaxAttempts       = 5

	SubmitMaxBackoffConfigEnvName = envConfigPrefix + "SUBMIT_MAX_BACKOFF"
	defaultSubmitMaxBackoff       = time.Second

	UserRateLimitConfigEnvName = envConfigPrefix + "USER_RATE_LIMIT"
	defaultUserRateLimit       = 5.0

	EligibilityFilterSizeConfigEnvName = envConfigPrefix + "ELIGIBILITY_FILTER_SIZE"
	defaultEligibilityFilterSize       = 100_000

	AuditScheduleConfigEnvName = envConfigPrefix + "AUDIT_SCHEDULE"
	defaultAuditSchedule       = "@every 5m"
)

type conf struct {
	appendBatchSize       config.Uint64
	submitMaxAttempts     config.Uint64
	submitMaxBackoff      config.Duration
	userRateLimit         config.Float64
	eligibilityFilterSize config.Uint64
	auditSchedule         config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			appendBatchSize:       env.NewUint64Config(AppendBatchSizeConfigEnvName, defaultAppendBatchSize),
			submitMaxAttempts:     env.NewUint64Config(SubmitMaxAttemptsConfigEnvName, defaultSubmitMaxAttempts),
			submitMaxBackoff:      env.NewDurationConfig(SubmitMaxBackoffConfigEnvName, defaultSubmitMaxBackoff),
			userRateLimit:         env.NewFloat64Config(UserRateLimitConfigEnvName, defaultUserRateLimit),
			eligibilityFilterSize: env.NewUint64Config(EligibilityFilterSizeConfigEnvName, defaultEligibilityFilterSize),
			auditSchedule:         env.NewStringConfig(AuditScheduleConfigEnvName, defaultAuditSchedule),
		}
	}
}

type testOverrides struct {
	appendBatchSize uint64
	userRateLimit   float64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		appendBatchSize := overrides.appendBatchSize
		if appendBatchSize == 0 {
			appendBatchSize = defaultAppendBatchSize
		}
		userRateLimit := overrides.userRateLimit
		if userRateLimit == 0 {
			userRateLimit = 1_000
		}

		return &conf{
			appendBatchSize:       wrapper.NewUint64Config(memory.NewConfig(appendBatchSize), defaultAppendBatchSize),
			submitMaxAttempts:     wrapper.NewUint64Config(memory.NewConfig(uint64(3)), defaultSubmitMaxAttempts),
			submitMaxBackoff:      wrapper.NewDurationConfig(memory.NewConfig(10*time.Millisecond), defaultSubmitMaxBackoff),
			userRateLimit:         wrapper.NewFloat64Config(memory.NewConfig(userRateLimit), defaultUserRateLimit),
			eligibilityFilterSize: wrapper.NewUint64Config(memory.NewConfig(uint64(1_000)), defaultEligibilityFilterSize),
			auditSchedule:         wrapper.NewStringConfig(memory.NewConfig("@every 1m"), defaultAuditSchedule),
		}
	}
}
