package enrich

import "context"

// Fetcher retrieves live data about an address.
// Implementations must return an empty map for an empty address and must
// honor ctx cancellation.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, address string) (map[string]any, error)
}

// FetchFunc is the signature of a fetcher body.
type FetchFunc func(ctx context.Context, address string) (map[string]any, error)

type funcFetcher struct {
	name string
	fn   FetchFunc
}

// Func adapts fn into a named Fetcher.
func Func(name string, fn FetchFunc) Fetcher {
	return &funcFetcher{name: name, fn: fn}
}

func (f *funcFetcher) Name() string {
	return f.name
}

func (f *funcFetcher) Fetch(ctx context.Context, address string) (map[string]any, error) {
	return f.fn(ctx, address)
}

// Defaults returns the fetchers used when none are configured, in merge order.
func Defaults() []Fetcher {
	return []Fetcher{RentEstimate(), CrimeNearby()}
}
