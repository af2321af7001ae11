package httpserver

import "errors"

var (
	ErrStart    = errors.New("failed to start server")
	ErrShutdown = errors.New("server shutdown failed")
)
