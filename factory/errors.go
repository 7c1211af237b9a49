package factory

import (
	"errors"

	"github.com/warp/payroll-engine/generic"
)

// ErrRatioOutOfRange is returned for a rate outside [0, 1].
var ErrRatioOutOfRange = errors.New("ratio must be between 0 and 1")

func init() {
	generic.RegisterClientError(ErrRatioOutOfRange)
}
