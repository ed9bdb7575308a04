package client

import "errors"

var ErrIncompleteApp = errors.New("client app needs services, a UI and a config")
