// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrPrecondition marks a fatal input problem: key mismatch, missing
	// share entries, NaN/Inf before a solve, malformed keys.
	ErrPrecondition = errors.New("iomodel: precondition violated")

	// ErrMissingData marks an input file or sheet that holds no usable rows.
	ErrMissingData = errors.New("iomodel: required data missing")

	// ErrSingularSystem marks a Leontief system (I - A_EE^T) that cannot be solved.
	ErrSingularSystem = errors.New("iomodel: singular Leontief system")
)

// maxReportedKeys caps how many offending keys an error message lists.
const maxReportedKeys = 8

// PreconditionError describes a fatal input problem with enough context to
// diagnose it without re-running.
type PreconditionError struct {
	Op     string // operation that detected the problem
	Matrix string // table the problem was found in
	Keys   []Key  // offending keys, possibly truncated
	Total  int    // number of offending keys before truncation
	Detail string
}

func (e *PreconditionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Matrix != "" {
		b.WriteString(e.Matrix)
		b.WriteString(": ")
	}
	b.WriteString(e.Detail)
	if len(e.Keys) > 0 {
		parts := make([]string, len(e.Keys))
		for i, k := range e.Keys {
			parts[i] = k.String()
		}
		fmt.Fprintf(&b, " [%s", strings.Join(parts, ", "))
		if e.Total > len(e.Keys) {
			fmt.Fprintf(&b, ", ... %d more", e.Total-len(e.Keys))
		}
		b.WriteString("]")
	}
	return b.String()
}

// Is lets errors.Is(err, ErrPrecondition) match.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

func preconditionf(op, matrix string, keys []Key, format string, args ...any) error {
	e := &PreconditionError{
		Op:     op,
		Matrix: matrix,
		Total:  len(keys),
		Detail: fmt.Sprintf(format, args...),
	}
	if len(keys) > maxReportedKeys {
		keys = keys[:maxReportedKeys]
	}
	e.Keys = append([]Key(nil), keys...)
	return e
}

// SingularSystemError is returned when (I - A_EE^T) is singular or too badly
// conditioned to trust. Batch drivers skip the unit and continue.
type SingularSystemError struct {
	Op   string
	Size int     // dimension of the endogenous block
	Cond float64 // condition number estimate, +Inf when exactly singular
	Err  error   // underlying gonum error, usually mat.Condition
}

func (e *SingularSystemError) Error() string {
	if math.IsInf(e.Cond, 1) {
		return fmt.Sprintf("%s: %d x %d Leontief system is exactly singular", e.Op, e.Size, e.Size)
	}
	return fmt.Sprintf("%s: %d x %d Leontief system is near singular (condition %.3g)", e.Op, e.Size, e.Size, e.Cond)
}

// Is lets errors.Is(err, ErrSingularSystem) match.
func (e *SingularSystemError) Is(target error) bool { return target == ErrSingularSystem }

func (e *SingularSystemError) Unwrap() error { return e.Err }

// IsSingular reports whether err is, or wraps, a SingularSystemError.
func IsSingular(err error) bool { return errors.Is(err, ErrSingularSystem) }

// DiagnosticKind classifies a non-fatal gap.
type DiagnosticKind string

const (
	MissingVolatility DiagnosticKind = "missing_volatility"
	MissingWeight     DiagnosticKind = "missing_weight"
	MissingSector     DiagnosticKind = "missing_sector"
	ZeroShock         DiagnosticKind = "zero_shock"
	SingularSkipped   DiagnosticKind = "singular_system"
	NonFiniteSkipped  DiagnosticKind = "non_finite_solution"
)

// Diagnostic records one skipped (sector, region) pair or exogenous sector.
type Diagnostic struct {
	Kind   DiagnosticKind
	Key    Key
	Region string
	Detail string
}

func (d Diagnostic) String() string {
	s := string(d.Kind) + " " + d.Key.String()
	if d.Region != "" {
		s += " region=" + d.Region
	}
	if d.Detail != "" {
		s += ": " + d.Detail
	}
	return s
}

// requireReport fails operations that skip entries when there is no report
// to record the skips in.
func requireReport(op string, report *Report) error {
	if report == nil {
		return preconditionf(op, "", nil, "a report is required to record skipped entries")
	}
	return nil
}

// Report collects the diagnostics of one computation. It is not safe for
// concurrent use; batch drivers merge per-unit reports under their own lock.
type Report struct {
	Diagnostics []Diagnostic
}

// Add appends a diagnostic. A nil report discards it.
func (r *Report) Add(d Diagnostic) {
	if r == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

// Merge appends every diagnostic of o.
func (r *Report) Merge(o *Report) {
	if r == nil || o == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// Count returns how many diagnostics have the given kind.
func (r *Report) Count(kind DiagnosticKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
