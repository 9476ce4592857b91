// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exiobaseZ has AT trading energy domestically and DE buying only from itself.
func exiobaseZ(t *testing.T) *KeyedMatrix {
	t.Helper()
	labels := []string{"AT_A", "AT_B_gas", "AT_B_nongas", "DE_A", "DE_B_gas", "DE_B_nongas"}
	return mustMatrix(t, labels, labels, []float64{
		1, 2, 6, 1, 0, 0,
		3, 1, 1, 0, 0, 0,
		1, 1, 1, 0, 0, 0,
		0, 0, 0, 5, 4, 4,
		0, 0, 0, 0, 0, 0,
		0, 0, 0, 2, 0, 0,
	})
}

func TestEnergyShareMatrix(t *testing.T) {
	s, err := EnergyShareMatrix(exiobaseZ(t), ShareOptions{})
	require.NoError(t, err)

	tests := []struct {
		row, col string
		want     float64
	}{
		// non-energy block untouched
		{"AT_A", "AT_A", 1},
		{"DE_A", "AT_A", 1},
		// row shares
		{"AT_B_gas", "AT_A", 0.75},
		{"AT_B_nongas", "AT_A", 0.25},
		{"AT_B_gas", "DE_A", 0},
		{"AT_B_nongas", "DE_A", 0},
		{"DE_B_gas", "DE_A", 0},
		{"DE_B_nongas", "DE_A", 1},
		// column shares
		{"AT_A", "AT_B_gas", 0.25},
		{"AT_A", "AT_B_nongas", 0.75},
		{"AT_A", "DE_B_gas", 0},
		{"AT_A", "DE_B_nongas", 0},
		{"DE_A", "DE_B_gas", 0.5},
		{"DE_A", "DE_B_nongas", 0.5},
		// quadrant with trade
		{"AT_B_gas", "AT_B_gas", 0.25},
		{"AT_B_nongas", "AT_B_gas", 0.25},
		// quadrants without trade fall back to non-gas
		{"AT_B_gas", "DE_B_gas", 0},
		{"AT_B_nongas", "DE_B_nongas", 1},
		{"DE_B_gas", "AT_B_gas", 0},
		{"DE_B_nongas", "AT_B_nongas", 1},
		{"DE_B_nongas", "DE_B_nongas", 1},
		{"DE_B_gas", "DE_B_nongas", 0},
	}
	for i, test := range tests {
		got := cell(t, s, test.row, test.col)
		if !almostEqual(got, test.want, 1e-12) {
			t.Errorf("Test %d: S[%s][%s] = %v; want %v", i+1, test.row, test.col, got, test.want)
		}
	}
}

func TestEnergyShareMatrixEvenQuadrant(t *testing.T) {
	s, err := EnergyShareMatrix(exiobaseZ(t), ShareOptions{ZeroQuadrant: QuadrantEven})
	require.NoError(t, err)
	for _, r := range []string{"AT_B_gas", "AT_B_nongas"} {
		for _, c := range []string{"DE_B_gas", "DE_B_nongas"} {
			assert.Equal(t, 0.25, cell(t, s, r, c))
		}
	}
	// a traded quadrant does not depend on the policy
	assert.Equal(t, 0.25, cell(t, s, "AT_B_gas", "AT_B_nongas"))
}

func TestEnergyShareMatrixQuadrantsSumToOne(t *testing.T) {
	s, err := EnergyShareMatrix(exiobaseZ(t), ShareOptions{})
	require.NoError(t, err)
	for _, sup := range []string{"AT", "DE"} {
		for _, con := range []string{"AT", "DE"} {
			var sum float64
			for _, rs := range []string{GasSector, NonGasSector} {
				for _, cs := range []string{GasSector, NonGasSector} {
					v, ok := s.At(K(sup, rs), K(con, cs))
					require.True(t, ok)
					sum += v
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "%s -> %s", sup, con)
		}
	}
}

func TestEnergyShareMatrixNeedsSplitSectors(t *testing.T) {
	z := mustMatrix(t, []string{"AT_A", "AT_B"}, []string{"AT_A", "AT_B"}, []float64{1, 2, 3, 4})
	_, err := EnergyShareMatrix(z, ShareOptions{})
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestParseQuadrantPolicy(t *testing.T) {
	p, err := ParseQuadrantPolicy("")
	require.NoError(t, err)
	assert.Equal(t, QuadrantNonGas, p)

	p, err = ParseQuadrantPolicy("even")
	require.NoError(t, err)
	assert.Equal(t, "even", p.String())

	_, err = ParseQuadrantPolicy("half")
	assert.Error(t, err)
}
