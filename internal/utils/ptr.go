package utils

import (
	"strings"

	"github.com/google/uuid"
)

func Ptr[T any](v T) *T {
	return &v
}

// Returns nil on an empty or all whitespace string
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Parses an optional UUID, empty input means no value
func UUIDOrNil(s string) (*uuid.UUID, error) {
	str := StringOrNil(s)
	if str == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*str)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
