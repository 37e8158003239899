package gateway

import (
	json "github.com/goccy/go-json"
)

// Envelope is the uniform response body. Failures carrying Errors render
// {success, errors}; everything else renders {success, message, data}.
type Envelope struct {
	Success bool
	Message string
	Data    any
	Errors  []string
}

type messageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Errors != nil {
		return json.Marshal(errorEnvelope{Success: e.Success, Errors: e.Errors})
	}
	return json.Marshal(messageEnvelope{Success: e.Success, Message: e.Message, Data: e.Data})
}

// Response is a rendered reply. Body is nil for 204.
type Response struct {
	Status int
	Body   []byte
}

// ContentType is the media type of every non-empty Body.
const ContentType = "application/json; charset=utf-8"
