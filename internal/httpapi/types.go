package httpapi

// AttachmentPayload is one attachment in a message request. Data is
// base64-encoded on the wire.
type AttachmentPayload struct {
	MediaType string `json:"media_type"`
	Name      string `json:"name,omitempty"`
	Data      []byte `json:"data"`
}

// MessageRequest is the request body for message appends.
type MessageRequest struct {
	Text        string              `json:"text"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
}

// CompleteRequest is the request body for POST /api/v1/onboarding/complete.
type CompleteRequest struct {
	Summary string `json:"summary"`
}

// CreateResponse is the response body for conversation creation.
type CreateResponse struct {
	ConversationID string `json:"conversation_id"`
	GreetingText   string `json:"greeting_text"`
}

// AppendResponse is the response body for message appends.
type AppendResponse struct {
	ReplyText          string  `json:"reply_text"`
	IsSummaryCandidate bool    `json:"is_summary_candidate,omitempty"`
	DerivedTitle       *string `json:"derived_title,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
