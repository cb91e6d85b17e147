package enrich

import "context"

// RentEstimate returns the rent-estimate placeholder.
// For a non-empty address it yields {"rentcast": {"address", "note"}}.
func RentEstimate() Fetcher {
	return Func("rentcast", func(ctx context.Context, address string) (map[string]any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if address == "" {
			return map[string]any{}, nil
		}
		return map[string]any{
			"rentcast": map[string]any{
				"address": address,
				"note":    "stubbed - wire real data",
			},
		}, nil
	})
}

// CrimeNearby returns the nearby-crime placeholder.
// incidents_12mo is always null until a real data source is wired.
func CrimeNearby() Fetcher {
	return Func("crime", func(ctx context.Context, address string) (map[string]any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if address == "" {
			return map[string]any{}, nil
		}
		return map[string]any{
			"crime": map[string]any{
				"address":        address,
				"incidents_12mo": nil,
				"note":           "stubbed",
			},
		}, nil
	})
}
