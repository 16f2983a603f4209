package xmlbind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceOptional_DuplicateIsError(t *testing.T) {
	var acc OnceOptional[string]
	require.NoError(t, acc.Accept("first", "f"))

	err := acc.Accept("second", "f")
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindDuplicateValue, xerr.Kind)
}

func TestOnceOptional_MissingAtFinalizeIsError(t *testing.T) {
	var acc OnceOptional[string]
	_, err := acc.Finalize("f")
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindMissingValue, xerr.Kind)
}

func TestOnceOptional_Finalize(t *testing.T) {
	var acc OnceOptional[int]
	require.NoError(t, acc.Accept(7, "f"))

	v, err := acc.Finalize("f")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMany_AccumulatesAndNeverFails(t *testing.T) {
	var acc Many[int]
	require.NoError(t, acc.Accept(1, "f"))
	require.NoError(t, acc.Accept(2, "f"))
	require.NoError(t, acc.Accept(3, "f"))

	v, err := acc.Finalize("f")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestMany_EmptyFinalizesToEmptySlice(t *testing.T) {
	var acc Many[string]
	v, err := acc.Finalize("f")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestOptionalOf_AbsentIsNotAnError(t *testing.T) {
	var acc OptionalOf[string]
	v, present, err := acc.Finalize("f")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, "", v)
}

func TestOptionalOf_PresentAfterAccept(t *testing.T) {
	var acc OptionalOf[string]
	require.NoError(t, acc.Accept("hi", "f"))

	v, present, err := acc.Finalize("f")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "hi", v)
}

func TestOptionalOf_DuplicateIsStillAnError(t *testing.T) {
	var acc OptionalOf[string]
	require.NoError(t, acc.Accept("first", "f"))

	err := acc.Accept("second", "f")
	require.Error(t, err)
}
