// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ReadDirectory reads all files in a directory
func ReadDirectory(directory string) []os.DirEntry {
	files, err := os.ReadDir(directory)
	if err != nil {
		panic(fmt.Sprintf("Error reading directory %s: %v", directory, err))
	}
	return files
}

// skipComments reads lines from scanner, skipping comment lines starting with #
func skipComments(scanner *bufio.Scanner) string {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// keys parses "Country_Sector" labels, panicking on a bad label
func keys(labels ...string) []Key {
	out := make([]Key, len(labels))
	for i, l := range labels {
		k, err := ParseKey(l)
		if err != nil {
			panic(err)
		}
		out[i] = k
	}
	return out
}

// mustMatrix builds a keyed matrix from labels and row-major data
func mustMatrix(t *testing.T, rows, cols []string, data []float64) *KeyedMatrix {
	t.Helper()
	m, err := NewKeyedMatrix(keys(rows...), keys(cols...), data)
	require.NoError(t, err)
	return m
}

// mustVec builds a keyed vector from labels and values
func mustVec(t *testing.T, name string, labels []string, values []float64) *KeyedVector {
	t.Helper()
	v, err := NewKeyedVector(name, keys(labels...), values)
	require.NoError(t, err)
	return v
}

// cell reads one cell by labels
func cell(t *testing.T, m *KeyedMatrix, row, col string) float64 {
	t.Helper()
	v, ok := m.At(keys(row)[0], keys(col)[0])
	require.True(t, ok, "cell %s x %s not present", row, col)
	return v
}
