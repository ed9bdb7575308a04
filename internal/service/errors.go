package service

import "errors"

var (
	ErrEmptyCollection = errors.New("collection name is empty")
	ErrEmptyRecordID   = errors.New("record id is empty")

	ErrInvalidRemoteRecord = errors.New("remote record has no id")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrUnknownBatchMethod = errors.New("unknown batch method")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidRecordData  = errors.New("invalid record data")

	ErrAuthDisabled            = errors.New("token auth is disabled")
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)
