package event

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Validation limits enforced by the ingestion service.
const (
	// MaxAttributesAndMetrics is the combined attribute + metric count limit.
	MaxAttributesAndMetrics = 40

	// MaxNameLength is the longest accepted attribute or metric name, in
	// characters.
	MaxNameLength = 50

	// MaxAttributeValueLength is the longest accepted attribute value, in
	// characters.
	MaxAttributeValueLength = 200
)

// Validation rule identifiers, in the order the rules are checked.
const (
	RuleVersion        = "version"
	RuleEventType      = "event_type"
	RuleMetricValue    = "metric_value"
	RuleCount          = "count"
	RuleName           = "name_length"
	RuleAttributeValue = "attribute_value_length"
)

// ValidationError reports the first constraint an event violated.
type ValidationError struct {
	Rule    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event (%s): %s", e.Rule, e.Message)
}

// Validate checks an event against the service's schema constraints.
// Checks run in a fixed order and the first violated rule wins.
// Returns nil when the event is valid.
func Validate(e *Event) *ValidationError {
	if e.Version != SchemaVersion {
		return &ValidationError{
			Rule:    RuleVersion,
			Message: fmt.Sprintf("version %q is not %q", e.Version, SchemaVersion),
		}
	}

	if e.Type == "" {
		return &ValidationError{
			Rule:    RuleEventType,
			Message: "event type is empty",
		}
	}

	for _, name := range sortedMetricNames(e.Metrics) {
		v := e.Metrics[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{
				Rule:    RuleMetricValue,
				Message: fmt.Sprintf("metric %q is not a finite number", name),
			}
		}
	}

	if n := len(e.Attributes) + len(e.Metrics); n > MaxAttributesAndMetrics {
		return &ValidationError{
			Rule:    RuleCount,
			Message: fmt.Sprintf("%d attributes and metrics exceed the limit of %d", n, MaxAttributesAndMetrics),
		}
	}

	for _, name := range sortedAttributeNames(e.Attributes) {
		if n := utf8.RuneCountInString(name); n < 1 || n > MaxNameLength {
			return &ValidationError{
				Rule:    RuleName,
				Message: fmt.Sprintf("attribute name %q length %d is outside [1,%d]", name, n, MaxNameLength),
			}
		}
	}
	for _, name := range sortedMetricNames(e.Metrics) {
		if n := utf8.RuneCountInString(name); n < 1 || n > MaxNameLength {
			return &ValidationError{
				Rule:    RuleName,
				Message: fmt.Sprintf("metric name %q length %d is outside [1,%d]", name, n, MaxNameLength),
			}
		}
	}

	for _, name := range sortedAttributeNames(e.Attributes) {
		if n := utf8.RuneCountInString(e.Attributes[name]); n > MaxAttributeValueLength {
			return &ValidationError{
				Rule:    RuleAttributeValue,
				Message: fmt.Sprintf("attribute %q value length %d exceeds %d", name, n, MaxAttributeValueLength),
			}
		}
	}

	return nil
}

// sortedAttributeNames returns attribute names in a stable order so the
// reported violation is deterministic.
func sortedAttributeNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
