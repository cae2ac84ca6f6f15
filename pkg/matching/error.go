package matching

import "errors"

var ErrUnknownAlgorithm = errors.New("unknown matching algorithm")
