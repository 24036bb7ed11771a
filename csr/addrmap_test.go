package csr_test

import (
	"testing"

	"github.com/db47h/locksim/csr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign(t *testing.T) {
	order := []string{"io_a", "io_b", "iir1_a", "iir1_b", "iir1_c", "iir1_d", "iir2_a", "iir2_b", "iir2_c", "iir2_d", "gpio", "mux"}
	m, err := csr.Assign(order, map[string]int{"mux": 31}, 32)
	require.NoError(t, err)
	for i, n := range order[:len(order)-1] {
		idx, ok := m.Index(n)
		assert.True(t, ok)
		assert.Equal(t, i, idx, n)
	}
	idx, _ := m.Index("mux")
	assert.Equal(t, 31, idx)
	assert.Equal(t, "mux", m.Name(31))
	assert.Equal(t, "", m.Name(12))
	assert.Equal(t, "", m.Name(32))
	assert.Equal(t, len(order), m.Len())
	assert.Equal(t, 32, m.Capacity())

	// same input, same map
	m2, err := csr.Assign(order, map[string]int{"mux": 31}, 32)
	require.NoError(t, err)
	assert.Equal(t, m.Assignments(), m2.Assignments())
}

func TestAssignOverrideFirst(t *testing.T) {
	m, err := csr.Assign([]string{"a", "b", "c"}, map[string]int{"c": 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, []csr.Assignment{{"c", 0}, {"a", 1}, {"b", 2}}, m.Assignments())
}

func TestAssignErrors(t *testing.T) {
	td := []struct {
		name      string
		order     []string
		overrides map[string]int
		capacity  int
	}{
		{"zero capacity", []string{"a"}, nil, 0},
		{"empty name", []string{"a", ""}, nil, 4},
		{"duplicate", []string{"a", "a"}, nil, 4},
		{"unknown override", []string{"a"}, map[string]int{"b": 1}, 4},
		{"override out of range", []string{"a"}, map[string]int{"a": 4}, 4},
		{"negative override", []string{"a"}, map[string]int{"a": -1}, 4},
		{"collision", []string{"a", "b"}, map[string]int{"a": 1, "b": 1}, 4},
		{"exhausted", []string{"a", "b", "c"}, map[string]int{"a": 1}, 2},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := csr.Assign(d.order, d.overrides, d.capacity)
			assert.Error(t, err)
		})
	}
}
