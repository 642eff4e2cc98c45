package async_executor

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/autotp-labs/autotp-server/pkg/database/query"
	"github.com/autotp-labs/autotp-server/pkg/jupiter"
	"github.com/autotp-labs/autotp-server/pkg/metrics"
	"github.com/autotp-labs/autotp-server/pkg/retry"
	"github.com/autotp-labs/autotp-server/pkg/solana"
	"github.com/autotp-labs/autotp-server/pkg/solana/takeprofit"
	"github.com/autotp-labs/autotp-server/pkg/solana/token"

	"github.com/autotp-labs/autotp-server/pkg/autotp/async"
	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/autotp/price"
)

const (
	metricsStructName = "async.executor"

	vaultBatchSize = 100
)

// Execution is permissionless on chain, so the crank signs only as the fee
// payer. Any party running this service against the same program reaches the
// same outcome.
type service struct {
	log              *logrus.Entry
	data             vault.Store
	pricing          *jupiter.Client
	solanaClient     solana.Client
	subsidizer       ed25519.PrivateKey
	protocolTreasury ed25519.PublicKey
}

func New(
	data vault.Store,
	pricing *jupiter.Client,
	solanaClient solana.Client,
	subsidizer ed25519.PrivateKey,
	protocolTreasury ed25519.PublicKey,
) async.Service {
	return &service{
		log:              logrus.StandardLogger().WithField("service", "executor"),
		data:             data,
		pricing:          pricing,
		solanaClient:     solanaClient,
		subsidizer:       subsidizer,
		protocolTreasury: protocolTreasury,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.worker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("vault execution loop terminated unexpectedly")
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (p *service) worker(serviceCtx context.Context, interval time.Duration) error {
	var cursor query.Cursor
	delay := interval

	err := retry.Loop(
		func() (err error) {
			time.Sleep(delay)

			select {
			case <-serviceCtx.Done():
				return serviceCtx.Err()
			default:
			}

			tracer := metrics.TraceMethodCall(serviceCtx, metricsStructName, "processBatch")
			defer tracer.End()

			// Get a batch of armed vault records
			items, err := p.data.GetAllByState(
				serviceCtx,
				takeprofit.StateArmed,
				cursor,
				vaultBatchSize,
				query.Ascending,
			)
			if err == vault.ErrVaultNotFound {
				cursor = query.EmptyCursor
				return nil
			} else if err != nil {
				cursor = query.EmptyCursor
				tracer.OnError(err)
				return err
			}

			prices, err := p.getPricesForBatch(serviceCtx, items)
			if err != nil {
				tracer.OnError(err)
				return err
			}

			// Process the batch of vaults in parallel
			var wg sync.WaitGroup
			for _, item := range items {
				currentPrice, ok := prices[item.Mint]
				if !ok {
					p.log.WithField("mint", item.Mint).Warn("no price available for mint")
					continue
				}

				wg.Add(1)
				go func(record *vault.Record, currentPrice uint64) {
					defer wg.Done()

					err := p.maybeExecuteVault(serviceCtx, record, currentPrice)
					if err != nil {
						tracer.OnError(err)
						p.log.
							WithError(err).
							WithField("vault", record.VaultAddress).
							Warn("failed to execute vault")
					}
				}(item, currentPrice)
			}
			wg.Wait()

			// Update cursor to point to the next set of vaults
			if len(items) > 0 {
				cursor = query.ToCursor(items[len(items)-1].Id)
			} else {
				cursor = query.EmptyCursor
			}

			return nil
		},
		retry.NonRetriableErrors(context.Canceled),
	)

	return err
}

// getPricesForBatch fetches current prices for the unique set of mints in a
// batch of vault records, converted to fixed-point quarks.
func (p *service) getPricesForBatch(ctx context.Context, items []*vault.Record) (map[string]uint64, error) {
	mintSet := make(map[string]struct{})
	for _, item := range items {
		mintSet[item.Mint] = struct{}{}
	}
	mints := make([]string, 0, len(mintSet))
	for mint := range mintSet {
		mints = append(mints, mint)
	}

	decimalPrices, err := p.pricing.GetPrices(ctx, mints...)
	if err != nil {
		return nil, errors.Wrap(err, "error fetching prices")
	}

	res := make(map[string]uint64, len(decimalPrices))
	for mint, decimalPrice := range decimalPrices {
		quarks, err := price.FromDecimal(decimalPrice)
		if err != nil {
			p.log.
				WithError(err).
				WithFields(logrus.Fields{
					"mint":  mint,
					"price": decimalPrice.String(),
				}).
				Warn("price not representable in fixed point")
			continue
		}
		res[mint] = quarks
	}
	return res, nil
}

// maybeExecuteVault submits an execution for a single armed vault when the
// current price has crossed its target.
func (p *service) maybeExecuteVault(ctx context.Context, record *vault.Record, currentPrice uint64) error {
	log := p.log.WithFields(logrus.Fields{
		"method": "maybeExecuteVault",
		"vault":  record.VaultAddress,
	})

	if currentPrice < record.TargetPrice {
		return nil
	}

	vaultAddress, err := base58.Decode(record.VaultAddress)
	if err != nil {
		return errors.Wrap(err, "invalid vault address")
	}
	custodyAddress, err := base58.Decode(record.CustodyAddress)
	if err != nil {
		return errors.Wrap(err, "invalid custody address")
	}

	// The chain is the authority on whether the vault still exists. An owner
	// may have cancelled since the record was last observed.
	accountInfo, err := p.solanaClient.GetAccountInfo(vaultAddress, solana.CommitmentFinalized)
	if err == solana.ErrNoAccountInfo {
		log.Info("vault no longer exists on chain")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "error fetching vault account")
	}

	var vaultAccount takeprofit.Vault
	if err := vaultAccount.Unmarshal(accountInfo.Data); err != nil {
		return errors.Wrap(err, "invalid vault account data")
	}

	destinationUser, err := token.GetAssociatedAccount(vaultAccount.Owner, vaultAccount.TokenMint)
	if err != nil {
		return errors.Wrap(err, "error deriving owner destination")
	}
	destinationProtocol, err := token.GetAssociatedAccount(p.protocolTreasury, vaultAccount.TokenMint)
	if err != nil {
		return errors.Wrap(err, "error deriving protocol destination")
	}

	// Vaults without a referrer pay a zero referrer share; the account slot
	// is filled with the owner destination as a placeholder.
	destinationReferrer := destinationUser
	if vaultAccount.HasReferrer() {
		destinationReferrer, err = token.GetAssociatedAccount(vaultAccount.Referrer, vaultAccount.TokenMint)
		if err != nil {
			return errors.Wrap(err, "error deriving referrer destination")
		}
	}

	_, slot, err := p.solanaClient.GetTokenAccountBalance(custodyAddress)
	if err == solana.ErrNoBalance {
		log.Info("custody no longer exists on chain")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "error fetching custody balance")
	}

	instruction := takeprofit.NewExecuteTakeProfitInstruction(
		&takeprofit.ExecuteTakeProfitInstructionAccounts{
			Vault:               vaultAddress,
			Custody:             custodyAddress,
			DestinationUser:     destinationUser,
			DestinationProtocol: destinationProtocol,
			DestinationReferrer: destinationReferrer,
			Owner:               vaultAccount.Owner,
		},
		&takeprofit.ExecuteTakeProfitInstructionArgs{
			CurrentPrice: currentPrice,
		},
	)

	txn := solana.NewTransaction(
		p.subsidizer.Public().(ed25519.PublicKey),
		instruction.ToLegacyInstruction(),
	)

	bh, err := p.solanaClient.GetLatestBlockhash()
	if err != nil {
		return errors.Wrap(err, "error fetching latest blockhash")
	}
	txn.SetBlockhash(bh)

	if err := txn.Sign(p.subsidizer); err != nil {
		return errors.Wrap(err, "error signing transaction")
	}

	sig, err := p.solanaClient.SubmitTransaction(txn, solana.CommitmentConfirmed)
	if err != nil {
		return errors.Wrap(err, "error submitting transaction")
	}

	log.WithFields(logrus.Fields{
		"signature":     base58.Encode(sig[:]),
		"current_price": price.ToString(currentPrice),
		"target_price":  price.ToString(record.TargetPrice),
	}).Info("executed vault")

	recordExecutionEvent(ctx, record, currentPrice)

	// The execution can't have landed before the slot at which the custody
	// balance was observed.
	updated := record.Clone()
	updated.State = takeprofit.StateExecuted
	updated.ExecutedPrice = currentPrice
	updated.Block = slot + 1

	err = p.data.Save(ctx, updated)
	if err == vault.ErrStaleVaultState {
		// Another worker already recorded the execution
		return nil
	}
	return err
}
