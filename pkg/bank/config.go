package bank

import (
	"github.com/code-payments/nft-staking/pkg/config"
	"github.com/code-payments/nft-staking/pkg/config/env"
	"github.com/code-payments/nft-staking/pkg/config/memory"
	"github.com/code-payments/nft-staking/pkg/config/wrapper"
)

const (
	envConfigPrefix = "BANK_"

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	MaxInvokeDepthConfigEnvName = envConfigPrefix + "MAX_INVOKE_DEPTH"
	defaultMaxInvokeDepth       = 4

	BlockhashQueueSizeConfigEnvName = envConfigPrefix + "BLOCKHASH_QUEUE_SIZE"
	defaultBlockhashQueueSize       = 150

	SignatureCacheSizeConfigEnvName = envConfigPrefix + "SIGNATURE_CACHE_SIZE"
	defaultSignatureCacheSize       = 1_000_000

	EnableRentChecksConfigEnvName = envConfigPrefix + "ENABLE_RENT_CHECKS"
	defaultEnableRentChecks       = true
)

type conf struct {
	lockStripes        config.Uint64
	maxInvokeDepth     config.Uint64
	blockhashQueueSize config.Uint64
	signatureCacheSize config.Uint64
	enableRentChecks   config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lockStripes:        env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			maxInvokeDepth:     env.NewUint64Config(MaxInvokeDepthConfigEnvName, defaultMaxInvokeDepth),
			blockhashQueueSize: env.NewUint64Config(BlockhashQueueSizeConfigEnvName, defaultBlockhashQueueSize),
			signatureCacheSize: env.NewUint64Config(SignatureCacheSizeConfigEnvName, defaultSignatureCacheSize),
			enableRentChecks:   env.NewBoolConfig(EnableRentChecksConfigEnvName, defaultEnableRentChecks),
		}
	}
}

type testOverrides struct {
	maxInvokeDepth     uint64
	blockhashQueueSize uint64
	disableRentChecks  bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		maxInvokeDepth := overrides.maxInvokeDepth
		if maxInvokeDepth == 0 {
			maxInvokeDepth = defaultMaxInvokeDepth
		}
		blockhashQueueSize := overrides.blockhashQueueSize
		if blockhashQueueSize == 0 {
			blockhashQueueSize = defaultBlockhashQueueSize
		}

		return &conf{
			lockStripes:        wrapper.NewUint64Config(memory.NewConfig(uint64(64)), defaultLockStripes),
			maxInvokeDepth:     wrapper.NewUint64Config(memory.NewConfig(maxInvokeDepth), defaultMaxInvokeDepth),
			blockhashQueueSize: wrapper.NewUint64Config(memory.NewConfig(blockhashQueueSize), defaultBlockhashQueueSize),
			signatureCacheSize: wrapper.NewUint64Config(memory.NewConfig(uint64(1024)), defaultSignatureCacheSize),
			enableRentChecks:   wrapper.NewBoolConfig(memory.NewConfig(!overrides.disableRentChecks), defaultEnableRentChecks),
		}
	}
}
