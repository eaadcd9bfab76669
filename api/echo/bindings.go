package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/iesahq/portal/core"
)

type SwitchSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (r *SwitchSessionRequest) Validate(validate *validator.Validate) error {
	r.SessionID = core.CleanString(r.SessionID)
	return validate.Struct(r)
}
