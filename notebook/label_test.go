package notebook_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLabelValidationScenario5 reproduces the literal scenario from the
// property suite: a well-formed prefixed key validates, a key with an
// empty prefix segment is rejected with EmptyPrefix specifically.
func TestLabelValidationScenario5(t *testing.T) {
	require.NoError(t, notebook.ValidateLabel(notebook.Label{Key: "fiberplane.io/env", Value: "prod"}))

	err := notebook.ValidateLabel(notebook.Label{Key: "/no-prefix", Value: ""})
	require.Error(t, err)
	var lerr *notebook.LabelValidationError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, notebook.EmptyPrefix, lerr.Kind)
}

func TestLabelValidationEmptyValueIsAllowed(t *testing.T) {
	assert.NoError(t, notebook.ValidateLabelValue(""))
}

func TestLabelValidationRejectsOverlongName(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	err := notebook.ValidateLabelKey(string(long))
	require.Error(t, err)
}

func TestLabelValidationRejectsNameStartingWithHyphen(t *testing.T) {
	err := notebook.ValidateLabelKey("-bad")
	require.Error(t, err)
}
