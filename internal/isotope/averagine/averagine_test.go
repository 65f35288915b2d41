package averagine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_FirstEntryIsMaximum(t *testing.T) {
	env := Envelope(PeptideModel, 1500)
	require.NotEmpty(t, env)
	for _, v := range env {
		assert.LessOrEqual(t, v, env[0]+1e-9)
	}
}

func TestEnvelope_TruncatesBelowThreshold(t *testing.T) {
	env := Envelope(PeptideModel, 1200)
	require.NotEmpty(t, env)
	for _, v := range env[:len(env)-1] {
		assert.GreaterOrEqual(t, v/env[0], 1e-3)
	}
}

func TestEnvelope_LargerMassHasWiderEnvelope(t *testing.T) {
	small := Envelope(PeptideModel, 600)
	large := Envelope(PeptideModel, 6000)
	assert.GreaterOrEqual(t, len(large), len(small))
}

func TestEnvelope_IsCachedPerMassBin(t *testing.T) {
	a := Envelope(PeptideModel, 1000)
	b := Envelope(PeptideModel, 1000.1) // same 5 Da bin
	assert.Equal(t, a, b)
}

func TestEnvelope_PeptideAndMetaboliteModelsDiffer(t *testing.T) {
	pep := Envelope(PeptideModel, 300)
	met := Envelope(MetaboliteModel, 300)
	assert.NotEqual(t, pep, met)
}

func TestEnvelope_ZeroMassReturnsSingleton(t *testing.T) {
	env := Envelope(PeptideModel, 0)
	require.Len(t, env, 1)
	assert.Equal(t, 1.0, env[0])
}
