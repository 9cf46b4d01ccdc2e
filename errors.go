package datahub

import "errors"

// Static error definitions for the hub facade, following the taxonomy its
// component packages (kbs, kms, secret, annotation, crypto) each implement
// for their own concern.
var (
	ErrInvalidConfig = errors.New("invalid hub configuration")
)
