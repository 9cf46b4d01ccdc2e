package kms

import "errors"

var (
	ErrUnsupportedOperation = errors.New("kms driver does not support this operation")
	ErrDriverNotRegistered  = errors.New("no kms driver registered for provider")
	ErrDriverAlreadyRegistered = errors.New("kms driver already registered for provider")
)
