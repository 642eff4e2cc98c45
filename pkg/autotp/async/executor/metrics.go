package async_executor

import (
	"context"

	"github.com/autotp-labs/autotp-server/pkg/metrics"

	"github.com/autotp-labs/autotp-server/pkg/autotp/data/vault"
	"github.com/autotp-labs/autotp-server/pkg/autotp/price"
)

const (
	vaultExecutedEventName = "VaultExecuted"
)

func recordExecutionEvent(ctx context.Context, record *vault.Record, currentPrice uint64) {
	metrics.RecordEvent(ctx, vaultExecutedEventName, map[string]interface{}{
		"vault":         record.VaultAddress,
		"owner":         record.Owner,
		"mint":          record.Mint,
		"target_price":  price.ToString(record.TargetPrice),
		"current_price": price.ToString(currentPrice),
		"has_referrer":  len(record.Referrer) > 0,
	})
}
