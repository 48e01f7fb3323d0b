package burger

type SubmissionStatus string

const (
	SubmissionEmpty     SubmissionStatus = "empty"
	SubmissionLoading   SubmissionStatus = "loading"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission tracks the order creation lifecycle:
// empty -> loading -> succeeded|failed -> empty. Leaving a terminal state
// only happens through CloseModal or ClearError.
type Submission struct {
	Status           SubmissionStatus `json:"status"`
	OrderNumber      int              `json:"order_number,omitempty"`
	OrderName        string           `json:"order_name,omitempty"`
	OrderError       string           `json:"order_error,omitempty"`
	IsOrderModalOpen bool             `json:"is_order_modal_open"`
}

func NewSubmission() Submission {
	return Submission{Status: SubmissionEmpty}
}

// Begin starts a new attempt. Nothing from a previous outcome survives.
func (s Submission) Begin() Submission {
	return Submission{Status: SubmissionLoading}
}

func (s Submission) Succeed(receipt OrderReceipt) Submission {
	return Submission{
		Status:           SubmissionSucceeded,
		OrderNumber:      receipt.Number,
		OrderName:        receipt.Name,
		IsOrderModalOpen: true,
	}
}

// Fail carries only the error; order number and name belong to succeeded.
func (s Submission) Fail(message string) Submission {
	return Submission{Status: SubmissionFailed, OrderError: message}
}

// CloseModal and ClearError both drop the outcome of the last attempt. A
// submission still in flight is left alone.
func (s Submission) CloseModal() Submission {
	if s.InProgress() {
		return s
	}
	return NewSubmission()
}

func (s Submission) ClearError() Submission {
	if s.InProgress() {
		return s
	}
	return NewSubmission()
}

func (s Submission) InProgress() bool {
	return s.Status == SubmissionLoading
}
