package entropy

import "context"

// Provider requests a random value for one draw. The value is not returned here, it is delivered
// later on the fulfilled topic as a model.EntropyFulfilledEvent carrying the same raffle id and
// nonce. The returned string identifies the request at the provider.
type Provider interface {
	RequestRandomness(ctx context.Context, raffleID, nonce uint64) (string, error)
}
