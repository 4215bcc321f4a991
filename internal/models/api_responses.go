package models

// ResolveResponse is the JSON shape printed by the resolve command.
type ResolveResponse struct {
	Keyword    string `json:"keyword"`
	LookupMode string `json:"lookup_mode"`
	ResolutionResult
}

// Envelope wraps every JSON body served over HTTP.
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK builds a success envelope. data may be nil.
func OK(data any) Envelope {
	return Envelope{Status: "ok", Data: data}
}

// Failure builds an error envelope.
func Failure(message string) Envelope {
	return Envelope{Status: "error", Error: message}
}
