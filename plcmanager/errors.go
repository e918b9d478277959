package plcmanager

import "errors"

// ErrNoChanges is returned by Update when changes carries neither a
// handle nor a service endpoint — there is nothing to build an
// operation for.
var ErrNoChanges = errors.New("plcmanager: update requires at least one change")
