package node

import "errors"

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeDisabled = errors.New("node disabled")
)
