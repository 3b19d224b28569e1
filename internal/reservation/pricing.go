package reservation

// Price returns the cost of a stay: nightly rate × nights. Rates carry at most
// two decimal places, so the product needs no rounding.
func Price(rate Money, checkIn, checkOut Date) (Money, error) {
	if rate <= 0 {
		return 0, ErrInvalidRate
	}
	stay := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := stay.Validate(); err != nil {
		return 0, err
	}
	return rate.Times(stay.Nights())
}
