package adapter

import (
	"fmt"

	"github.com/omnillm/unichat/internal/chat"
)

// ConfigError reports a missing credential for the selected vendor. It is
// fatal to the call and surfaced before any network activity.
type ConfigError struct {
	Kind    Kind
	EnvName string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing api key: environment variable %s is not set", e.Kind, e.EnvName)
}

// RoleNotSupportedError reports a conversation role the target vendor has
// no representation for, e.g. a tool response sent to a vendor without a
// tool role. Raised during request translation, before any network call.
type RoleNotSupportedError struct {
	Model ModelRef
	Role  chat.ChatRole
}

func (e *RoleNotSupportedError) Error() string {
	return fmt.Sprintf("%s: message role %q is not supported by this vendor", e.Model, e.Role)
}

// VendorError carries a vendor-reported failure: a non-2xx status or an
// in-body error envelope. Body holds the offending payload fragment.
type VendorError struct {
	Model  ModelRef
	Status int
	Body   []byte
}

func (e *VendorError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: vendor error (status %d): %s", e.Model, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: vendor error: %s", e.Model, e.Body)
}

// ShapeError reports a response that does not match the vendor's contract:
// an expected JSON path is absent or the completion reason is neither a
// stop nor a tool-call condition. Distinct from VendorError because it
// indicates contract drift rather than a caller mistake.
type ShapeError struct {
	Model  ModelRef
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Model, e.Detail)
}
