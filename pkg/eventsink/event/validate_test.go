package event_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
)

func validEvent() *event.Event {
	return &event.Event{
		Type:       "level_complete",
		Timestamp:  "2026-08-31T12:00:00.000Z",
		Session:    event.Session{ID: "session-1", StartTimestamp: "2026-08-31T11:00:00.000Z"},
		Version:    event.SchemaVersion,
		Attributes: map[string]string{"level": "3"},
		Metrics:    map[string]float64{"score": 1200},
	}
}

func TestValidateAcceptsWellFormedEvent(t *testing.T) {
	assert.Nil(t, event.Validate(validEvent()))
}

func TestValidateRejectsWrongVersion(t *testing.T) {
	e := validEvent()
	e.Version = "v1.0"

	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleVersion, verr.Rule)
}

func TestValidateRejectsEmptyEventType(t *testing.T) {
	e := validEvent()
	e.Type = ""

	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleEventType, verr.Rule)
}

func TestValidateRejectsNonFiniteMetrics(t *testing.T) {
	for name, value := range map[string]float64{
		"nan":     math.NaN(),
		"pos_inf": math.Inf(1),
		"neg_inf": math.Inf(-1),
	} {
		t.Run(name, func(t *testing.T) {
			e := validEvent()
			e.Metrics = map[string]float64{"score": value}

			verr := event.Validate(e)
			require.NotNil(t, verr)
			assert.Equal(t, event.RuleMetricValue, verr.Rule)
		})
	}
}

func TestValidateRejectsTooManyAttributesAndMetrics(t *testing.T) {
	e := validEvent()
	e.Attributes = make(map[string]string)
	e.Metrics = make(map[string]float64)
	for i := 0; i < 25; i++ {
		e.Attributes[strings.Repeat("a", i+1)] = "x"
		e.Metrics[strings.Repeat("m", i+1)] = 1
	}
	require.Greater(t, len(e.Attributes)+len(e.Metrics), event.MaxAttributesAndMetrics)

	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleCount, verr.Rule)
}

func TestValidateCountAtLimitAccepted(t *testing.T) {
	e := validEvent()
	e.Attributes = make(map[string]string)
	e.Metrics = make(map[string]float64)
	for i := 0; i < 20; i++ {
		e.Attributes[strings.Repeat("a", i+1)] = "x"
		e.Metrics[strings.Repeat("m", i+1)] = 1
	}
	require.Equal(t, event.MaxAttributesAndMetrics, len(e.Attributes)+len(e.Metrics))

	assert.Nil(t, event.Validate(e))
}

func TestValidateRejectsOverlongNames(t *testing.T) {
	t.Run("attribute", func(t *testing.T) {
		e := validEvent()
		e.Attributes[strings.Repeat("a", event.MaxNameLength+1)] = "x"

		verr := event.Validate(e)
		require.NotNil(t, verr)
		assert.Equal(t, event.RuleName, verr.Rule)
	})

	t.Run("metric", func(t *testing.T) {
		e := validEvent()
		e.Metrics[strings.Repeat("m", event.MaxNameLength+1)] = 1

		verr := event.Validate(e)
		require.NotNil(t, verr)
		assert.Equal(t, event.RuleName, verr.Rule)
	})

	t.Run("exactly_at_limit_accepted", func(t *testing.T) {
		e := validEvent()
		e.Attributes[strings.Repeat("a", event.MaxNameLength)] = "x"
		e.Metrics[strings.Repeat("m", event.MaxNameLength)] = 1

		assert.Nil(t, event.Validate(e))
	})
}

func TestValidateRejectsOverlongAttributeValue(t *testing.T) {
	e := validEvent()
	e.Attributes["payload"] = strings.Repeat("v", event.MaxAttributeValueLength+1)

	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleAttributeValue, verr.Rule)

	e.Attributes["payload"] = strings.Repeat("v", event.MaxAttributeValueLength)
	assert.Nil(t, event.Validate(e))
}

func TestValidateLimitsCountCharactersNotBytes(t *testing.T) {
	// "é" is two bytes in UTF-8; the limits are character counts, so a
	// 200-character multi-byte value (400 bytes) is still valid.
	e := validEvent()
	e.Attributes[strings.Repeat("é", event.MaxNameLength)] = strings.Repeat("é", event.MaxAttributeValueLength)
	assert.Nil(t, event.Validate(e))

	e = validEvent()
	e.Attributes["payload"] = strings.Repeat("é", event.MaxAttributeValueLength+1)
	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleAttributeValue, verr.Rule)
}

func TestValidateFirstViolationWins(t *testing.T) {
	// Wrong version together with an empty type: the version rule is
	// checked first and must be the one reported.
	e := validEvent()
	e.Version = "v1.0"
	e.Type = ""

	verr := event.Validate(e)
	require.NotNil(t, verr)
	assert.Equal(t, event.RuleVersion, verr.Rule)
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &event.ValidationError{Rule: event.RuleEventType, Message: "event type is empty"}
	assert.Equal(t, "invalid event (event_type): event type is empty", verr.Error())
}
