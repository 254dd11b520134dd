// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and upload can all import types without depending
// on each other.
package types

// Address is a postal address attached to a Student.
// All fields are free text; the whole value may be absent on a Student.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  controls how the field appears when encoded to JSON.
//     Grade and Address are omitted when empty.
//
//  2. validate:"..." rules checked by the go-playground/validator
//     package. The ID is only required when a document is sent for
//     update; the store assigns it on creation.
type Student struct {
	ID      string   `json:"id"               validate:"required"`
	Name    string   `json:"name"`
	Grade   string   `json:"grade,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Clone returns a deep copy of s. Stores hand out clones so that callers
// never share the Address pointer with stored state.
func (s Student) Clone() Student {
	if s.Address != nil {
		a := *s.Address
		s.Address = &a
	}
	return s
}
