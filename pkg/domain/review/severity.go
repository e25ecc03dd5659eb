package review

import "fmt"

// Severity classifies how serious a finding is. The order is total:
// info < minor < major < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// AllSeverities returns all valid severities in ascending order.
func AllSeverities() []Severity {
	return []Severity{SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical}
}

// ParseSeverity validates a raw string and returns the Severity value.
func ParseSeverity(value string) (Severity, error) {
	s := Severity(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity: %q", value)
	}
	return s, nil
}

// IsValid returns true if the severity is one of the four fixed values.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns the position of the severity in the total order, starting at 0
// for info. Invalid severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityMinor:
		return 1
	case SeverityMajor:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// MaxSeverity returns the highest severity among the given values.
// Returns SeverityInfo for an empty slice.
func MaxSeverity(severities []Severity) Severity {
	max := SeverityInfo
	for _, s := range severities {
		if s.Rank() > max.Rank() {
			max = s
		}
	}
	return max
}
