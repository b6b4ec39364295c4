package money

// Money is an amount stamped with the date it was valued at. Amounts at
// different dates are not comparable without going through a Converter.
type Money struct {
	Amount      float32
	WhenCreated Date
}

// New builds a Money value.
func New(amount float32, when Date) Money {
	return Money{Amount: amount, WhenCreated: when}
}
