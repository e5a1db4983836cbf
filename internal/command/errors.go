package command

import (
	"fmt"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

var (
	ErrUnknownMethod = fmt.Errorf("%w: unknown method", inv.ErrInvalidArgument)
	ErrMissingParam  = fmt.Errorf("%w: missing parameter", inv.ErrInvalidArgument)
	ErrBadParam      = fmt.Errorf("%w: bad parameter", inv.ErrInvalidArgument)
)
