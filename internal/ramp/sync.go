package ramp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// MarkTransactionSynced marks a transaction as synced to Business Central.
// Live writes are gated on the EnableSync capability flag given at
// construction: without the opt-in, no network call happens and the
// operation reports success so dry runs exercise the full export path.
// Requires the accounting:write scope when live.
func (c *Client) MarkTransactionSynced(ctx context.Context, transactionID, syncReference string) bool {
	if !c.enableSync {
		c.logger.Info("Dry run: would mark transaction as synced",
			zap.String("transaction_id", transactionID),
			zap.String("sync_reference", syncReference))
		return true
	}

	payload := map[string]any{
		"synced":      true,
		"sync_system": "business_central",
	}
	if syncReference != "" {
		payload["sync_reference"] = syncReference
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal sync payload",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return false
	}

	endpoint := fmt.Sprintf("%s/%s/%s/sync", c.baseURL, ResourceTransactions, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Sync write failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GetSyncStatus fetches a transaction's sync metadata. Best effort: any
// failure collapses to an empty map.
func (c *Client) GetSyncStatus(ctx context.Context, transactionID string) map[string]any {
	resp, err := c.getOnce(ctx, c.baseURL+"/"+string(ResourceTransactions)+"/"+transactionID, url.Values{})
	if err != nil {
		return map[string]any{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return map[string]any{}
	}

	var payload struct {
		SyncStatus map[string]any `json:"sync_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.SyncStatus == nil {
		return map[string]any{}
	}
	return payload.SyncStatus
}

// IsAlreadySynced reports whether a transaction already carries a prior-sync
// marker in any of the shapes Ramp has been observed to use: a top-level
// boolean, a nested sync_status object, or a metadata/attributes map. An
// unrecognized shape is "not synced", never an error.
func IsAlreadySynced(tx Transaction) bool {
	if tx.Synced != nil && *tx.Synced {
		return true
	}

	if tx.SyncStatus != nil {
		if synced, ok := tx.SyncStatus["synced"].(bool); ok && synced {
			return true
		}
		if status, ok := tx.SyncStatus["status"].(string); ok && strings.EqualFold(status, "synced") {
			return true
		}
	}

	for _, m := range []map[string]any{tx.Metadata, tx.Attributes} {
		if m == nil {
			continue
		}
		if synced, ok := m["synced"].(bool); ok && synced {
			return true
		}
		if ref, ok := m["sync_reference"].(string); ok && ref != "" {
			return true
		}
	}

	return false
}
