package user

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrEmployeeProfileRequired = errors.New("account is not linked to an employee")
)
