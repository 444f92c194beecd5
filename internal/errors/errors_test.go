package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"convsim/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomain_Codes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{core.NewInvalidParameterError("trials", "must be positive"), CodeInvalidParameter},
		{core.NewInvalidRegionError("no bounds"), CodeInvalidRegion},
		{core.NewInvalidPrefixSequenceError("empty"), CodeInvalidPrefixSequence},
		{core.NewDegenerateDistributionError(1, 3), CodeDegenerateDistribution},
		{fmt.Errorf("run 1: %w", core.ErrInvalidRegion), CodeInvalidRegion},
		{stderrors.New("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		appErr := FromDomain(tt.err)
		require.NotNil(t, appErr)
		assert.Equal(t, tt.code, appErr.Code, "error %v", tt.err)
		assert.True(t, stderrors.Is(appErr, tt.err))
	}
	assert.Nil(t, FromDomain(nil))
}

func TestWrap_PreservesCode(t *testing.T) {
	base := ConfigInvalid("SIM_TRIALS must be positive")
	wrapped := Wrap(base, "failed to load configuration")
	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Equal(t, "failed to load configuration: SIM_TRIALS must be positive", wrapped.Error())

	domainWrapped := Wrapf(core.ErrInvalidRegion, "region %d", 2)
	assert.Equal(t, CodeInvalidRegion, GetCode(domainWrapped))
	assert.True(t, stderrors.Is(domainWrapped, core.ErrInvalidRegion))

	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
}

func TestGetCode_Unknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(core.NewInvalidRegionError("x")))
	assert.True(t, IsClientError(InvalidInput("bad json")))
	assert.False(t, IsClientError(InternalError("oops")))
	assert.False(t, IsClientError(RenderFailed("png", stderrors.New("disk full"))))
}
