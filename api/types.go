package api

import "github.com/ruteri/secret-dns/interfaces"

// RegisterRequest is the body of POST /api/v1/domains.
type RegisterRequest struct {
	Domain string `json:"domain"`
	Owner  string `json:"owner"`
}

// SetTargetRequest is the body of PUT /api/v1/domains/{domain}/target.
type SetTargetRequest struct {
	Target string `json:"target"`
	Owner  string `json:"owner"`
}

// StatusResponse reports the registry outcome of a register or set target call.
// OK is true only for status "none".
type StatusResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

func NewStatusResponse(code interfaces.StatusCode) StatusResponse {
	return StatusResponse{OK: code == interfaces.StatusNone, Status: code.String()}
}

// ParseStatus maps a status name back to its code.
func ParseStatus(status string) (interfaces.StatusCode, bool) {
	for _, code := range []interfaces.StatusCode{interfaces.StatusNone, interfaces.StatusAlreadyRegistered, interfaces.StatusUnauthorized} {
		if code.String() == status {
			return code, true
		}
	}
	return 0, false
}

// ResolveResponse is returned by GET /api/v1/domains/{domain}.
type ResolveResponse struct {
	Domain string `json:"domain"`
	Target string `json:"target"`
}

// ErrorResponse carries the message of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
