package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
)

func TestCreateMonetizationNumericPrice(t *testing.T) {
	f := event.NewFactory()

	e, err := f.CreateMonetization(event.Session{ID: "s1"}, event.Monetization{
		Currency:  "USD",
		ProductID: "sku-42",
		Quantity:  2,
		Price:     9.99,
	})
	require.NoError(t, err)

	assert.Equal(t, event.MonetizationType, e.Type)
	assert.Equal(t, "USD", e.Attributes[event.AttrCurrency])
	assert.Equal(t, "sku-42", e.Attributes[event.AttrProductID])
	assert.Equal(t, 2.0, e.Metrics[event.MetricQuantity])
	assert.Equal(t, 9.99, e.Metrics[event.MetricPrice])
	assert.NotContains(t, e.Attributes, event.AttrPriceFormatted)
}

func TestCreateMonetizationFormattedPriceWins(t *testing.T) {
	f := event.NewFactory()

	e, err := f.CreateMonetization(event.Session{ID: "s1"}, event.Monetization{
		ProductID:      "sku-42",
		Quantity:       1,
		Price:          9.99,
		PriceFormatted: "$9.99",
	})
	require.NoError(t, err)

	assert.Equal(t, "$9.99", e.Attributes[event.AttrPriceFormatted])
	assert.NotContains(t, e.Metrics, event.MetricPrice)
}

func TestCreateMonetizationEmptyCurrencyOmitted(t *testing.T) {
	f := event.NewFactory()

	e, err := f.CreateMonetization(event.Session{ID: "s1"}, event.Monetization{
		ProductID: "sku-42",
		Quantity:  1,
		Price:     4.50,
	})
	require.NoError(t, err)

	assert.NotContains(t, e.Attributes, event.AttrCurrency)
	assert.Equal(t, "sku-42", e.Attributes[event.AttrProductID])
}

func TestCreateMonetizationMergesGlobals(t *testing.T) {
	f := event.NewFactory(
		event.WithGlobalAttributes(map[string]string{"store": "ios"}),
	)

	e, err := f.CreateMonetization(event.Session{ID: "s1"}, event.Monetization{
		Currency:  "EUR",
		ProductID: "sku-7",
		Quantity:  1,
		Price:     1.99,
	})
	require.NoError(t, err)

	assert.Equal(t, "ios", e.Attributes["store"])
	assert.Equal(t, "EUR", e.Attributes[event.AttrCurrency])
}
