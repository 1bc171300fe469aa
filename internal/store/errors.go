package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrCheckViolation  = errors.New("check constraint violated")
)

// translate maps sqlite constraint failures onto store errors the services can match on.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return errors.Join(ErrUniqueViolation, err)
	case sqlite3.ErrConstraintCheck:
		return errors.Join(ErrCheckViolation, err)
	}
	return err
}
