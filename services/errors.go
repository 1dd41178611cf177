package services

import "errors"

// Common errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternal            = errors.New("internal server error")
	ErrResourceExists      = errors.New("resource already exists")
	ErrValidation          = errors.New("validation error")
	ErrAttachmentStorage   = errors.New("attachment storage failure")
	ErrWebSocketConnection = errors.New("websocket connection error")
)
