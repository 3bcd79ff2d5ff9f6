package querydata_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/querydata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasData(t *testing.T) {
	assert.False(t, querydata.HasData(""))
	assert.True(t, querydata.HasData("application/x-www-form-urlencoded,q=up"))
}

func TestSetFieldPreservesInsertionOrder(t *testing.T) {
	qd, err := querydata.SetField("", "q", "up")
	require.NoError(t, err)
	qd, err = querydata.SetField(qd, "range", "5m")
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded,q=up&range=5m", qd)

	v, ok, err := querydata.GetField(qd, "range")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5m", v)
}

func TestSetFieldUpdatesInPlace(t *testing.T) {
	qd, err := querydata.SetField("application/x-www-form-urlencoded,q=up&range=5m", "q", "down")
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded,q=down&range=5m", qd)
}

func TestSetFieldEmptyValueUnsets(t *testing.T) {
	qd, err := querydata.SetField("application/x-www-form-urlencoded,q=up", "q", "")
	require.NoError(t, err)
	assert.Equal(t, "", qd)
}

func TestUnsetFieldCollapsesToAbsentWhenEmpty(t *testing.T) {
	qd, err := querydata.UnsetField("application/x-www-form-urlencoded,q=up", "q")
	require.NoError(t, err)
	assert.Equal(t, "", qd)
}

func TestUnsetFieldKeepsRemainingFields(t *testing.T) {
	qd, err := querydata.UnsetField("application/x-www-form-urlencoded,q=up&range=5m", "q")
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded,range=5m", qd)
}

func TestGetFieldMissing(t *testing.T) {
	_, ok, err := querydata.GetField("application/x-www-form-urlencoded,q=up", "range")
	require.NoError(t, err)
	assert.False(t, ok)
}
