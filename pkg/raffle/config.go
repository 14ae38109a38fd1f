package raffle

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/craffles/pkg/config"
	"github.com/code-payments/craffles/pkg/config/env"
	"github.com/code-payments/craffles/pkg/config/memory"
	"github.com/code-payments/craffles/pkg/config/wrapper"
)

const (
	envConfigPrefix = "CRAFFLES_"

	TreeMaxDepthConfigEnvName = envConfigPrefix + "TREE_MAX_DEPTH"
	defaultTreeMaxDepth       = 14

	TreeMaxBufferSizeConfigEnvName = envConfigPrefix + "TREE_MAX_BUFFER_SIZE"
	defaultTreeMaxBufferSize       = 64

	TreeCanopyDepthConfigEnvName = envConfigPrefix + "TREE_CANOPY_DEPTH"
	defaultTreeCanopyDepth       = 0

	TreePublicConfigEnvName = envConfigPrefix + "TREE_PUBLIC"
	defaultTreePublic       = false

	WrapScalingFactorConfigEnvName = envConfigPrefix + "WRAP_SCALING_FACTOR"
	defaultWrapScalingFactor       = 1

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	SkipSimulationConfigEnvName = envConfigPrefix + "SKIP_SIMULATION"
	defaultSkipSimulation       = false

	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 0 // Runtime default

	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0 // Micro-lamports

	ConfirmationPollLimitConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_LIMIT"
	defaultConfirmationPollLimit       = 64

	TicketNameConfigEnvName = envConfigPrefix + "TICKET_NAME"
	defaultTicketName       = "The Raffle Project"

	TicketSymbolConfigEnvName = envConfigPrefix + "TICKET_SYMBOL"
	defaultTicketSymbol       = "RAFF"

	TicketUriConfigEnvName = envConfigPrefix + "TICKET_URI"
	defaultTicketUri       = "https://nftstorage.link/ipfs/bafkreibyqogqxglj7nchdcz5h742yqxpnr5ikfoemeff7skhftdqjg3ymq"

	TicketSellerFeeBasisPointsConfigEnvName = envConfigPrefix + "TICKET_SELLER_FEE_BPS"
	defaultTicketSellerFeeBasisPoints       = 0

	TicketIsMutableConfigEnvName = envConfigPrefix + "TICKET_IS_MUTABLE"
	defaultTicketIsMutable       = true

	TicketPrimarySaleHappenedConfigEnvName = envConfigPrefix + "TICKET_PRIMARY_SALE_HAPPENED"
	defaultTicketPrimarySaleHappened       = true
)

type conf struct {
	treeMaxDepth          config.Uint64
	treeMaxBufferSize     config.Uint64
	treeCanopyDepth       config.Uint64
	treePublic            config.Bool
	wrapScalingFactor     config.Uint64
	commitment            config.String
	skipSimulation        config.Bool
	computeUnitLimit      config.Uint64
	computeUnitPrice      config.Uint64
	confirmationPollLimit config.Uint64

	ticketName                 config.String
	ticketSymbol               config.String
	ticketUri                  config.String
	ticketSellerFeeBasisPoints config.Uint64
	ticketIsMutable            config.Bool
	ticketPrimarySaleHappened  config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			treeMaxDepth:          env.NewUint64Config(TreeMaxDepthConfigEnvName, defaultTreeMaxDepth),
			treeMaxBufferSize:     env.NewUint64Config(TreeMaxBufferSizeConfigEnvName, defaultTreeMaxBufferSize),
			treeCanopyDepth:       env.NewUint64Config(TreeCanopyDepthConfigEnvName, defaultTreeCanopyDepth),
			treePublic:            env.NewBoolConfig(TreePublicConfigEnvName, defaultTreePublic),
			wrapScalingFactor:     env.NewUint64Config(WrapScalingFactorConfigEnvName, defaultWrapScalingFactor),
			commitment:            env.NewStringConfig(CommitmentConfigEnvName, defaultCommitment),
			skipSimulation:        env.NewBoolConfig(SkipSimulationConfigEnvName, defaultSkipSimulation),
			computeUnitLimit:      env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
			computeUnitPrice:      env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
			confirmationPollLimit: env.NewUint64Config(ConfirmationPollLimitConfigEnvName, defaultConfirmationPollLimit),

			ticketName:                 env.NewStringConfig(TicketNameConfigEnvName, defaultTicketName),
			ticketSymbol:               env.NewStringConfig(TicketSymbolConfigEnvName, defaultTicketSymbol),
			ticketUri:                  env.NewStringConfig(TicketUriConfigEnvName, defaultTicketUri),
			ticketSellerFeeBasisPoints: env.NewUint64Config(TicketSellerFeeBasisPointsConfigEnvName, defaultTicketSellerFeeBasisPoints),
			ticketIsMutable:            env.NewBoolConfig(TicketIsMutableConfigEnvName, defaultTicketIsMutable),
			ticketPrimarySaleHappened:  env.NewBoolConfig(TicketPrimarySaleHappenedConfigEnvName, defaultTicketPrimarySaleHappened),
		}
	}
}

// ConfigOverrides fixes config values in memory. Zero values keep the
// defaults, except for the booleans which are always applied.
type ConfigOverrides struct {
	TreeMaxDepth          uint32
	TreeMaxBufferSize     uint32
	TreeCanopyDepth       uint32
	TreePublic            bool
	WrapScalingFactor     uint64
	Commitment            string
	SkipSimulation        bool
	ComputeUnitLimit      uint32
	ComputeUnitPrice      uint64
	ConfirmationPollLimit uint64
}

// WithOverriddenConfigs returns configuration with values fixed in memory
func WithOverriddenConfigs(overrides *ConfigOverrides) ConfigProvider {
	return func() *conf {
		c := &conf{
			treeMaxDepth:          wrapper.NewUint64Config(memory.NewConfig(orDefault(uint64(overrides.TreeMaxDepth), defaultTreeMaxDepth)), defaultTreeMaxDepth),
			treeMaxBufferSize:     wrapper.NewUint64Config(memory.NewConfig(orDefault(uint64(overrides.TreeMaxBufferSize), defaultTreeMaxBufferSize)), defaultTreeMaxBufferSize),
			treeCanopyDepth:       wrapper.NewUint64Config(memory.NewConfig(uint64(overrides.TreeCanopyDepth)), defaultTreeCanopyDepth),
			treePublic:            wrapper.NewBoolConfig(memory.NewConfig(overrides.TreePublic), defaultTreePublic),
			wrapScalingFactor:     wrapper.NewUint64Config(memory.NewConfig(orDefault(overrides.WrapScalingFactor, defaultWrapScalingFactor)), defaultWrapScalingFactor),
			commitment:            wrapper.NewStringConfig(memory.NewConfig(defaultCommitment), defaultCommitment),
			skipSimulation:        wrapper.NewBoolConfig(memory.NewConfig(overrides.SkipSimulation), defaultSkipSimulation),
			computeUnitLimit:      wrapper.NewUint64Config(memory.NewConfig(uint64(overrides.ComputeUnitLimit)), defaultComputeUnitLimit),
			computeUnitPrice:      wrapper.NewUint64Config(memory.NewConfig(overrides.ComputeUnitPrice), defaultComputeUnitPrice),
			confirmationPollLimit: wrapper.NewUint64Config(memory.NewConfig(orDefault(overrides.ConfirmationPollLimit, defaultConfirmationPollLimit)), defaultConfirmationPollLimit),

			ticketName:                 wrapper.NewStringConfig(memory.NewConfig(defaultTicketName), defaultTicketName),
			ticketSymbol:               wrapper.NewStringConfig(memory.NewConfig(defaultTicketSymbol), defaultTicketSymbol),
			ticketUri:                  wrapper.NewStringConfig(memory.NewConfig(defaultTicketUri), defaultTicketUri),
			ticketSellerFeeBasisPoints: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultTicketSellerFeeBasisPoints)), defaultTicketSellerFeeBasisPoints),
			ticketIsMutable:            wrapper.NewBoolConfig(memory.NewConfig(defaultTicketIsMutable), defaultTicketIsMutable),
			ticketPrimarySaleHappened:  wrapper.NewBoolConfig(memory.NewConfig(defaultTicketPrimarySaleHappened), defaultTicketPrimarySaleHappened),
		}
		if len(overrides.Commitment) > 0 {
			c.commitment = wrapper.NewStringConfig(memory.NewConfig(overrides.Commitment), defaultCommitment)
		}
		return c
	}
}

func orDefault(v, defaultValue uint64) uint64 {
	if v == 0 {
		return defaultValue
	}
	return v
}

// getUint32 reads a config value that is stored on chain as a u32
func getUint32(ctx context.Context, name string, value config.Uint64) (uint32, error) {
	v := value.Get(ctx)
	if v > math.MaxUint32 {
		return 0, errors.Errorf("%s value %d exceeds %d", name, v, uint64(math.MaxUint32))
	}
	return uint32(v), nil
}
