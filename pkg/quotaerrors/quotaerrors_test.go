package quotaerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	err := Transient("fetch_table_stat", errors.New("dial tcp: timeout"))
	assert.True(t, Is(err, KindTransient))
	assert.False(t, Is(err, KindFatal))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindTransient))
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	err := Overflow("active_table_map", cause)
	assert.ErrorIs(t, err, cause)
}

func TestQuotaViolationErrorMessage(t *testing.T) {
	err := &QuotaViolationError{RelationID: 42, LimitMB: 100, UsedBytes: 200 << 20, Reason: "LIMIT_EXCEEDED"}
	assert.Contains(t, err.Error(), "relation 42")
	assert.Contains(t, err.Error(), "LIMIT_EXCEEDED")
}
