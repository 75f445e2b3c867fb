package escrow

import "github.com/iov-one/weave-escrow/errors"

// escrow takes 1010-1020
var (
	// ErrTransferFailed is returned when funds cannot be moved in or out
	// of the escrow custody. The escrow state is never advanced when this
	// error is returned.
	ErrTransferFailed = errors.Register(1010, "transfer failed")
)
