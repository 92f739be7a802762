package domain

// Status of an operation result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// OperationResult is what a business operation returns on success.
type OperationResult struct {
	Status  Status      `json:"status"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Created bool        `json:"-"`

	// Items carries per-item outcomes for batch operations; a batch may
	// partially succeed.
	Items []ItemResult `json:"items,omitempty"`
}

// ItemResult is the outcome of one item of a batch.
type ItemResult struct {
	Index   int     `json:"index"`
	Status  Status  `json:"status"`
	Message string  `json:"message,omitempty"`
	Record  *Record `json:"record,omitempty"`
}

// Success builds a successful result.
func Success(message string, payload interface{}) *OperationResult {
	return &OperationResult{Status: StatusSuccess, Message: message, Payload: payload}
}
