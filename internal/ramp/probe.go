package ramp

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ProbeAccounting is the availability-map key for the accounting write path.
// It has no collection endpoint of its own; the probe reuses the
// transactions endpoint as a stand-in.
const ProbeAccounting = "accounting"

// CheckAvailableEndpoints probes which collections this client's granted
// scopes can actually reach: a limit-1 GET that returns HTTP 200 means
// available, anything else (auth failure, rate limit, genuine 404, network
// error) means unavailable. The conflation is deliberate; Ramp does not
// expose granted-scope introspection cleanly, so the probe is a heuristic
// and must stay one.
func (c *Client) CheckAvailableEndpoints(ctx context.Context) map[string]bool {
	available := make(map[string]bool, len(AllResourceTypes)+1)

	for _, rt := range AllResourceTypes {
		available[string(rt)] = c.probe(ctx, string(rt))
	}
	// Readable transactions are the best signal we have that accounting
	// writes might be accepted.
	available[ProbeAccounting] = c.probe(ctx, string(ResourceTransactions))

	for endpoint, ok := range available {
		c.logger.Info("Endpoint availability",
			zap.String("endpoint", endpoint),
			zap.Bool("available", ok))
	}

	return available
}

func (c *Client) probe(ctx context.Context, endpoint string) bool {
	params := url.Values{}
	params.Set("limit", "1")

	resp, err := c.getOnce(ctx, c.baseURL+"/"+endpoint, params)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
