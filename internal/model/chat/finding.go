package chat

// Kind classifies an extracted identifier.
type Kind string

const (
	KindBankAccount Kind = "BANK_ACCOUNT"
	KindUPIID       Kind = "UPI_ID"
	KindPhoneNumber Kind = "PHONE_NUMBER"
	KindURL         Kind = "URL"
)

// Kinds lists every finding kind in reporting order.
var Kinds = []Kind{KindBankAccount, KindUPIID, KindPhoneNumber, KindURL}

// Finding is a single normalized identifier observed in the conversation.
type Finding struct {
	Kind          Kind   `json:"kind"`
	Value         string `json:"value"`
	FirstSeenTurn int    `json:"firstSeenTurn"`
}

// Key identifies a finding for deduplication.
func (f Finding) Key() string {
	return string(f.Kind) + "\x00" + f.Value
}
