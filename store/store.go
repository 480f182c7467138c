// Package store keeps dataset content by id.
package store

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNotFound = errors.New("content not found")

type ContentStore interface {
	Put(id string, content io.Reader) error
	Get(id string) (io.ReadCloser, error)
	Delete(id string) error
	// List returns stored ids in lexical order.
	List() ([]string, error)
	Clear() error
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid content id '%s'", id)
	}
	return nil
}
