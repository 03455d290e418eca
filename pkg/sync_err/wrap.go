// pkg/sync_err/wrap.go

package sync_err

import (
	cerr "github.com/cockroachdb/errors"
)

func WrapValidationError(err error) error {
	return cerr.WithHint(cerr.WithStack(err), "validation failed")
}

func WrapConfigError(err error) error {
	return cerr.WithHint(cerr.WithStack(err),
		"set the value in stretchsync.yaml, a STRETCHSYNC_ environment variable or a flag")
}
