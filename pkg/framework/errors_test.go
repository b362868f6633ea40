package framework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())

	errA, errB := errors.New("a"), errors.New("b")
	errs.Add(nil, errA)
	require.Equal(t, "a", errs.Aggregate().Error())

	errs.Add(fmt.Errorf("wrapped: %w", errB))
	err := errs.Aggregate()
	require.Equal(t, "multiple errors: a; wrapped: b", err.Error())
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
	require.False(t, errors.Is(err, errors.New("c")))
}
