package dto

// PushEnvelope is the wrapper the broker POSTs to the push endpoint.
//
//	{"message": {"data": "<base64>", "messageId": "...", "publishTime": "...", "attributes": {...}}, "subscription": "..."}
type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription,omitempty"`
}

// PushMessage carries the base64-encoded payload and transport metadata.
// Everything except Data is optional.
type PushMessage struct {
	Data        string            `json:"data"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime string            `json:"publishTime,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type PushResponse struct {
	Status string `json:"status"`
}
