package database

import "errors"

var (
	// ErrInvalidURL indicates the datasource URL could not be parsed.
	ErrInvalidURL = errors.New("database: invalid datasource url")

	// ErrUnreachable indicates the database did not answer a ping within the
	// configured attempts.
	ErrUnreachable = errors.New("database: unreachable")

	// ErrNoPasswordSecret indicates Config.PasswordSecret was left empty.
	ErrNoPasswordSecret = errors.New("database: password secret name not set")
)
