package dispatch

import (
	"errors"

	"github.com/nareshsaladi2024/OICAgentOps/internal/catalog"
)

// asInvalidArguments unwraps err looking for a handler-raised
// catalog.InvalidArgumentsError (e.g. a bulk array size overflow), which
// dispatch.renderError reports with the InvalidArguments wording rather
// than the generic "Error executing <tool>" wording.
func asInvalidArguments(err error) (string, bool) {
	var ierr *catalog.InvalidArgumentsError
	if errors.As(err, &ierr) {
		return ierr.Msg, true
	}
	return "", false
}
