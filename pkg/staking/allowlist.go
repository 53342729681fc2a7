package staking

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/system"
)

// AllowListArgs identifies an allow list created by an admin.
type AllowListArgs struct {
	Collection string
	Rarity     string
	Nonce      uint64
}

// InitializeAllowList creates and initializes an empty allow list owned by
// admin, returning its address.
func (c *Client) InitializeAllowList(ctx context.Context, admin ed25519.PrivateKey, args *AllowListArgs) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "InitializeAllowList")
	defer tracer.End()

	address, err := c.initializeAllowList(ctx, admin, args)
	tracer.OnError(err)
	return address, err
}

func (c *Client) initializeAllowList(ctx context.Context, admin ed25519.PrivateKey, args *AllowListArgs) (ed25519.PublicKey, error) {
	if _, err := nftrarity.ToFixedLength(args.Collection); err != nil {
		return nil, errors.Wrap(err, "invalid collection label")
	}
	if _, err := nftrarity.ToFixedLength(args.Rarity); err != nil {
		return nil, errors.Wrap(err, "invalid rarity label")
	}

	adminKey := publicKey(admin)
	address, seed, err := nftrarity.GetRarityInfoAddress(&nftrarity.GetRarityInfoAddressArgs{
		Admin:      adminKey,
		Collection: args.Collection,
		Rarity:     args.Rarity,
		Nonce:      args.Nonce,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive allow list address")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     "InitializeAllowList",
		"admin":      base58.Encode(adminKey),
		"allow_list": base58.Encode(address),
		"collection": args.Collection,
		"rarity":     args.Rarity,
		"nonce":      args.Nonce,
	})

	size := uint64(nftrarity.GetRarityInfoAccountSize(0))
	_, err = c.submit(
		ctx,
		[]ed25519.PrivateKey{admin},
		system.CreateAccountWithSeed(adminKey, address, adminKey, seed, system.Rent.MinimumBalance(size), size, nftrarity.PROGRAM_ID),
		nftrarity.NewInitializeInstruction(
			&nftrarity.InitializeInstructionAccounts{Admin: adminKey, RarityInfo: address},
			&nftrarity.InitializeInstructionArgs{Collection: args.Collection, Rarity: args.Rarity, Nonce: args.Nonce},
		),
	)
	if err != nil {
		log.WithError(err).Warn("failed to initialize allow list")
		return nil, err
	}

	log.Info("allow list initialized")
	return address, nil
}

// AppendToAllowList adds mints to an allow list, splitting them across as
// many transactions as the configured batch size requires. Batches are
// applied in order, and a failure leaves earlier batches in place.
func (c *Client) AppendToAllowList(ctx context.Context, admin ed25519.PrivateKey, allowList ed25519.PublicKey, mints []ed25519.PublicKey) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "AppendToAllowList")
	defer tracer.End()

	err := c.appendToAllowList(ctx, admin, allowList, mints)
	tracer.OnError(err)
	return err
}

func (c *Client) appendToAllowList(ctx context.Context, admin ed25519.PrivateKey, allowList ed25519.PublicKey, mints []ed25519.PublicKey) error {
	if len(mints) == 0 {
		return ErrNoMints
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     "AppendToAllowList",
		"allow_list": base58.Encode(allowList),
		"mints":      len(mints),
	})

	batchSize := int(c.conf.appendBatchSize.Get(ctx))
	if batchSize <= 0 {
		batchSize = defaultAppendBatchSize
	}

	adminKey := publicKey(admin)
	for start := 0; start < len(mints); start += batchSize {
		end := start + batchSize
		if end > len(mints) {
			end = len(mints)
		}

		_, err := c.submit(
			ctx,
			[]ed25519.PrivateKey{admin},
			nftrarity.NewAppendListInstruction(
				&nftrarity.AppendListInstructionAccounts{Admin: adminKey, RarityInfo: allowList},
				&nftrarity.AppendListInstructionArgs{MintList: mints[start:end]},
			),
		)
		if err != nil {
			log.WithError(err).WithField("batch_start", start).Warn("failed to append batch to allow list")
			return err
		}
	}

	log.Debug("mints appended to allow list")
	return nil
}

// TransferAllowListAdmin hands control of an allow list to newAdmin.
func (c *Client) TransferAllowListAdmin(ctx context.Context, admin ed25519.PrivateKey, newAdmin, allowList ed25519.PublicKey) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "TransferAllowListAdmin")
	defer tracer.End()

	_, err := c.submit(
		ctx,
		[]ed25519.PrivateKey{admin},
		nftrarity.NewUpdateAdminInstruction(&nftrarity.UpdateAdminInstructionAccounts{
			Admin:      publicKey(admin),
			NewAdmin:   newAdmin,
			RarityInfo: allowList,
		}),
	)
	tracer.OnError(err)
	return err
}

// GetAllowList returns the committed state of an allow list.
func (c *Client) GetAllowList(ctx context.Context, address ed25519.PublicKey) (*nftrarity.RarityInfoAccount, error) {
	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAllowListNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get allow list account")
	}

	if !info.Owner.Equal(nftrarity.PROGRAM_ID) {
		return nil, ErrAllowListNotFound
	}

	var allowList nftrarity.RarityInfoAccount
	if err := allowList.Unmarshal(info.Data); err != nil {
		return nil, ErrAllowListNotFound
	}
	return &allowList, nil
}
