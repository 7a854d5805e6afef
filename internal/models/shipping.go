package models

import "github.com/shopspring/decimal"

// ShippingMethod is a delivery option offered at checkout.
type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

var shippingCosts = map[ShippingMethod]decimal.Decimal{
	ShippingStandard:  decimal.RequireFromString("5.00"),
	ShippingExpress:   decimal.RequireFromString("15.00"),
	ShippingOvernight: decimal.RequireFromString("25.00"),
}

// Cost returns the flat fee for the method.
func (m ShippingMethod) Cost() (decimal.Decimal, bool) {
	cost, ok := shippingCosts[m]
	return cost, ok
}

// PaymentMethods accepted at checkout.
var PaymentMethods = map[string]bool{
	"credit_card":   true,
	"debit_card":    true,
	"bank_transfer": true,
	"cod":           true,
}
