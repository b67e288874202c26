package model

// CallRequest is what the provider needs to dial out. Never stored.
type CallRequest struct {
	To          string `json:"to"`
	From        string `json:"from"`
	AnswerURL   string `json:"answer_url"`
	FallbackURL string `json:"fallback_url"`
	HangupURL   string `json:"hangup_url"`
}

// CallResult carries the provider-assigned tracking identifiers.
type CallResult struct {
	Provider    string `json:"provider"`
	RequestUUID string `json:"request_uuid"`
	APIID       string `json:"api_id,omitempty"`
	Message     string `json:"message,omitempty"`
	Region      string `json:"region,omitempty"` // ISO region of the destination, when known
}
