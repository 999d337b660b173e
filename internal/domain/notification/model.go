package notification

// Message is a rendered notification ready for delivery.
// HTML uses the Telegram HTML subset; Text is the same content without markup.
type Message struct {
	Kind Kind
	HTML string
	Text string
}

// Recipient is a deduplicated subscriber with a usable delivery address.
type Recipient struct {
	SubscriberID int64
	Address      string
}

// Outcome is the result of the single delivery attempt made to a recipient.
// The attempt succeeded iff Err is nil.
type Outcome struct {
	Recipient Recipient
	Err       error
}

// Delivered reports whether the attempt succeeded.
func (o Outcome) Delivered() bool {
	return o.Err == nil
}

// Report aggregates the outcomes of one dispatch.
// SuccessCount+FailureCount equals the number of recipients and
// FailedAddresses lists the failed recipients in collection order.
type Report struct {
	SuccessCount    int      `json:"success_count"`
	FailureCount    int      `json:"failure_count"`
	FailedAddresses []string `json:"failed_addresses"`
}

// Total returns the number of attempts the report accounts for.
func (r Report) Total() int {
	return r.SuccessCount + r.FailureCount
}

func emptyReport() Report {
	return Report{FailedAddresses: []string{}}
}

// Result is what the trigger hands back to the write path.
// Error is set when recipients could not be resolved, which keeps that case
// apart from an event that simply had nobody to notify.
type Result struct {
	Kind       Kind `json:"kind"`
	Recipients int  `json:"recipients"`
	Report
	Error string `json:"error,omitempty"`
}

// Resolved reports whether recipient resolution succeeded.
func (r *Result) Resolved() bool {
	return r != nil && r.Error == ""
}
