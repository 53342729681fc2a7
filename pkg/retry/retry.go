package retry

import "context"

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes the provided action, potentially multiple times based off of
// the provided strategies. Retry blocks until the action is successful, one of
// the strategies declines another attempt, or ctx is done. The number of
// attempts and the last action error are returned.
//
// The strategies are executed in the provided order, so any strategies that
// induce delays should be specified last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if shouldRetry := s(ctx, i, err); !shouldRetry {
				return i, err
			}
		}

		if ctx.Err() != nil {
			return i, err
		}
	}
}
