package event

// MonetizationType is the fixed event type for purchase events.
const MonetizationType = "_monetization.purchase"

// Reserved attribute and metric names used by monetization events.
const (
	AttrCurrency       = "_currency"
	AttrProductID      = "_product_id"
	AttrPriceFormatted = "_item_price_formatted"
	MetricQuantity     = "_quantity"
	MetricPrice        = "_item_price"
)

// Monetization describes a purchase recorded as a _monetization.purchase
// event.
//
// Price and PriceFormatted model the two representations a purchase price
// can take: a numeric price becomes the _item_price metric, a display-ready
// string ("9.99 USD") becomes the _item_price_formatted attribute. When
// PriceFormatted is set it takes precedence and Price is ignored.
type Monetization struct {
	Currency       string
	ProductID      string
	Quantity       float64
	Price          float64
	PriceFormatted string
}

// CreateMonetization builds and validates a purchase event.
func (f *Factory) CreateMonetization(session Session, m Monetization) (*Event, error) {
	attrs := map[string]string{
		AttrProductID: m.ProductID,
	}
	if m.Currency != "" {
		attrs[AttrCurrency] = m.Currency
	}
	mets := map[string]float64{
		MetricQuantity: m.Quantity,
	}

	if m.PriceFormatted != "" {
		attrs[AttrPriceFormatted] = m.PriceFormatted
	} else {
		mets[MetricPrice] = m.Price
	}

	return f.Create(MonetizationType, session, attrs, mets)
}
