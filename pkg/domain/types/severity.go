package types

import "fmt"

// Severity is the staff-assigned severity category of an issue.
// Unlike the set-once fields of an issue record it is freely mutable.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// IsValid checks if the severity is within the known range
func (s Severity) IsValid() bool {
	return s >= SeverityNone && s <= SeverityCritical
}

// Label returns the human-readable name of the severity
func (s Severity) Label() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseSeverity parses an integer into a Severity
func ParseSeverity(v int) (Severity, error) {
	s := Severity(v)
	if !s.IsValid() {
		return 0, fmt.Errorf("invalid severity: %d", v)
	}
	return s, nil
}

// ParseSeverityLabel parses a human-readable severity name
func ParseSeverityLabel(label string) (Severity, error) {
	for s := SeverityNone; s <= SeverityCritical; s++ {
		if s.Label() == label {
			return s, nil
		}
	}
	return 0, fmt.Errorf("invalid severity label: %s", label)
}
