package source

import "errors"

var UnsupportedSourceError = errors.New("query not supported by this source")
