package deps

import "errors"

var errAlreadyInstalling = errors.New("deps: install already in progress for this project")

// ErrAlreadyInstalling is returned by Install when a run is already in
// flight for the given project_id.
var ErrAlreadyInstalling = errAlreadyInstalling
