package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution_Entries(t *testing.T) {
	d := &Distribution{
		Variables: []Variable{{Name: "A", Cardinality: 2}, {Name: "B", Cardinality: 3}},
		Values:    []float64{0.1, 0.2, 0.1, 0.3, 0.2, 0.1},
	}

	entries := d.Entries()
	require.Len(t, entries, 6)
	assert.Equal(t, []int{0, 0}, entries[0].Assignment)
	assert.Equal(t, []int{0, 2}, entries[2].Assignment)
	assert.Equal(t, []int{1, 0}, entries[3].Assignment)
	assert.Equal(t, 0.3, entries[3].Probability)
	assert.Equal(t, []int{1, 2}, entries[5].Assignment)

	p, err := d.Prob(map[string]int{"A": 1, "B": 1})
	require.NoError(t, err)
	assert.Equal(t, 0.2, p)

	_, err = d.Prob(map[string]int{"A": 1})
	assert.ErrorIs(t, err, ErrInvalidDomain)
	_, err = d.Prob(map[string]int{"A": 1, "C": 0})
	assert.ErrorIs(t, err, ErrUnknownVariable)
	_, err = d.Prob(map[string]int{"A": 2, "B": 0})
	assert.ErrorIs(t, err, ErrInvalidDomain)

	marginal, err := d.Marginal("B")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.4, 0.4, 0.2}, marginal, 1e-12)

	_, err = d.Marginal("C")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	assert.Equal(t, []int{1, 0}, d.ArgMax().Assignment)
}

func TestDistribution_MarginalAgreesWithQuery(t *testing.T) {
	e := newEngine(t, diagnosisModel(t))
	evidence := map[string]int{"Sneezing": 1}

	joint, err := e.Query([]string{"Season", "Disease"}, evidence)
	require.NoError(t, err)
	require.Equal(t, "Disease", joint.Variables[0].Name)

	fromJoint, err := joint.Marginal("Disease")
	require.NoError(t, err)

	direct, err := e.Query([]string{"Disease"}, evidence)
	require.NoError(t, err)
	assert.InDeltaSlice(t, direct.Values, fromJoint, tolerance)
}

func TestCompensatedSum(t *testing.T) {
	var s compensatedSum
	s.add(1)
	for i := 0; i < 10; i++ {
		s.add(1e-16)
	}
	s.add(-1)
	assert.InDelta(t, 1e-15, s.value(), 1e-25)
}
