package httpapi

import "pokercore/internal/engine"

// ErrorResponse is the wire shape for a failed request, carrying the
// same message_key/params every CoreError already carries.
type ErrorResponse struct {
	MessageKey string         `json:"message_key"`
	Params     map[string]any `json:"params,omitempty"`
}

// statusFor maps a CoreError's category to the HTTP status spec.md §7
// fixes: 400 validation, 409 session-state, 422 contract violation, 500
// information-set violation. This mapping lives only here, outside the
// core, exactly as §7 specifies.
func statusFor(err *engine.CoreError) int {
	switch err.Category {
	case engine.CategoryValidation:
		return 400
	case engine.CategorySessionState:
		return 409
	case engine.CategoryContractViolation:
		return 422
	case engine.CategoryInfoSetViolation:
		return 500
	default:
		return 500
	}
}

func toErrorResponse(err *engine.CoreError) ErrorResponse {
	return ErrorResponse{MessageKey: err.MessageKey, Params: err.Params}
}
