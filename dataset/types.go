package dataset

import (
	"fmt"
	"strings"
)

// Type is the declared type of a column.
type Type string

const (
	TypeAny     Type = "any"
	TypeString  Type = "string"
	TypeNumeric Type = "numeric"
	TypeInteger Type = "integer"
	TypeDouble  Type = "double"
	TypeFloat   Type = "float"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
	TypeChar    Type = "char"
)

var knownTypes = map[Type]bool{
	TypeAny:     true,
	TypeString:  true,
	TypeNumeric: true,
	TypeInteger: true,
	TypeDouble:  true,
	TypeFloat:   true,
	TypeBoolean: true,
	TypeDate:    true,
	TypeChar:    true,
}

// ParseType resolves a type tag. Empty tag means string.
func ParseType(tag string) (Type, error) {
	if tag == "" {
		return TypeString, nil
	}
	t := Type(strings.ToLower(tag))
	if !knownTypes[t] {
		return "", fmt.Errorf("unknown column type '%s'", tag)
	}
	return t, nil
}

func (t Type) IsNumeric() bool {
	switch t {
	case TypeNumeric, TypeInteger, TypeDouble, TypeFloat:
		return true
	}
	return false
}
