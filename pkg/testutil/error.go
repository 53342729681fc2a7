package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/solana"
)

// AssertInstructionError verifies that the provided error is a failure of the
// instruction at index caused by target.
func AssertInstructionError(t *testing.T, err error, index int, target error) {
	require.Error(t, err)

	var ixnErr *solana.InstructionError
	require.True(t, errors.As(err, &ixnErr), "expected instruction error, got %v", err)
	assert.Equal(t, index, ixnErr.Index)
	assert.True(t, errors.Is(err, target), "expected %v, got %v", target, ixnErr.Err)
}
