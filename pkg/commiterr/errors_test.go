package commiterr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := New(KindEntitlement, StepVerify, "player %s lacks %s", "p-1", "Iron Ore")

	assert.ErrorIs(t, err, ErrEntitlement)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("commit resource: %w", err)
	assert.ErrorIs(t, wrapped, ErrEntitlement)
	assert.Equal(t, KindEntitlement, KindOf(wrapped))
	assert.Equal(t, StepVerify, StepOf(wrapped))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(KindChainRead, StepResolve, nil, "ignored"))

	cause := errors.New("connection refused")
	err := Wrap(KindChainRead, StepResolve, cause, "registry resolve")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrChainRead)
	assert.Equal(t, "ChainReadError [resolve]: registry resolve: connection refused", err.Error())
}

func TestWithSubject_Copies(t *testing.T) {
	base := New(KindNotFound, StepVerify, "not in catalog")
	annotated := base.WithSubject("Mythril", "player-7")

	assert.Empty(t, base.Asset)
	assert.Equal(t, "Mythril", annotated.Asset)
	assert.Equal(t, "player-7", annotated.PlayerID)
	assert.ErrorIs(t, annotated, ErrNotFound)
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:      http.StatusNotFound,
		KindEntitlement:   http.StatusForbidden,
		KindOwnership:     http.StatusConflict,
		KindEncoding:      http.StatusBadRequest,
		KindConfiguration: http.StatusServiceUnavailable,
		KindChainRead:     http.StatusBadGateway,
		KindStoreRead:     http.StatusBadGateway,
		KindSigning:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
		assert.Equal(t, want < 500, ClientActionable(kind), kind)
	}
}
