package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the wire version stamped into every response as "v".
// Clients check it before parsing the rest of the envelope.
const envelopeVersion = 1

// successEnvelope wraps successful response bodies.
type successEnvelope struct {
	V       int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorEnvelope wraps error responses. Simple errors carry only the
// "error" string; detailed errors carry code/message/details.
type errorEnvelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every response body in the versioned envelope.
// Registered on the huma config so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		env := &errorEnvelope{V: envelopeVersion}
		if apiErr.Code == "" && apiErr.Details == nil {
			env.Error = apiErr.Message
		} else {
			env.Code = apiErr.Code
			env.Message = apiErr.Message
			env.Details = apiErr.Details
		}
		return env, nil
	}

	return &successEnvelope{V: envelopeVersion, Success: true, Data: v}, nil
}
