package types

// Intent is the classification tag returned by the language service for a
// customer message.
type Intent string

const (
	IntentOrder  Intent = "ORDER"
	IntentPolicy Intent = "POLICY"
	IntentRefund Intent = "REFUND"
	IntentOther  Intent = "OTHER"
)

// IsValid checks if the intent is valid
func (i Intent) IsValid() bool {
	switch i {
	case IntentOrder, IntentPolicy, IntentRefund, IntentOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the intent
func (i Intent) String() string {
	return string(i)
}

// ParseIntent parses a string into an Intent, falling back to IntentOther for
// anything the language service returns outside the known tags.
func ParseIntent(s string) Intent {
	intent := Intent(s)
	if !intent.IsValid() {
		return IntentOther
	}
	return intent
}
