package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
		{http.StatusServiceUnavailable, KindServer},
		{http.StatusBadRequest, KindNetwork},
		{http.StatusTooManyRequests, KindNetwork},
		{http.StatusTeapot, KindNetwork},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.status), "status %d", tc.status)
	}
}

func TestFromStatusKeepsExactStatus(t *testing.T) {
	err := FromStatus(http.StatusBadGateway)
	require.NotNil(t, err)
	assert.Equal(t, KindServer, err.Kind)
	assert.Equal(t, http.StatusBadGateway, err.Status)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))

	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound)))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("fetching page: %w", New(KindUnauthorized))
	assert.Equal(t, KindUnauthorized, KindOf(wrapped))

	// Unclassified errors surface as network failures.
	assert.Equal(t, KindNetwork, KindOf(errors.New("boom")))
}

func TestWrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindNetwork, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindNetwork, err.Kind)
	assert.Contains(t, err.Error(), "connection reset")
}
