package response

// Envelope is the JSON body for non-2xx and auth responses.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Error(code, message string, data any) Envelope {
	return Envelope{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
