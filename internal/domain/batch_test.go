package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBatchResultCounts(t *testing.T) {
	res := NewBatchResult([]BatchItem{
		Succeed("a"),
		Fail("b", errors.New("boom")),
		Succeed("c"),
	})

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.True(t, res.PartiallySucceeded())
	assert.False(t, res.AllSucceeded())
	assert.False(t, res.AllFailed())
	assert.Equal(t, []string{"a", "c"}, res.SucceededIDs())
	assert.Equal(t, "boom", res.Results[1].Error)
}

func TestBatchResultEmpty(t *testing.T) {
	res := NewBatchResult(nil)
	assert.True(t, res.AllSucceeded())
	assert.False(t, res.AllFailed())
	assert.NotNil(t, res.Results)
}

func TestFingerprintMapRoundTrip(t *testing.T) {
	fp := DefaultFingerprint()
	fp.Fonts = []string{"Arial"}

	attrs, err := fp.ToMap()
	assert.NoError(t, err)
	assert.Equal(t, "windows", attrs["platform"])
	assert.Equal(t, false, attrs["disableSandbox"])

	back, err := FingerprintFromMap(attrs)
	assert.NoError(t, err)
	assert.Equal(t, fp, back)
}
