package round

import "errors"

var ErrUnknownMode = errors.New("unknown game mode")
