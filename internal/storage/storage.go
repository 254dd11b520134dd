// Package storage defines the Storage interface, a contract that any
// student store must satisfy to work with this application.
//
// Handlers and the uploader depend only on this interface, so the
// in-memory registry and the SQLite backend are interchangeable and
// tests can run the same scenarios against either.
package storage

import (
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-registry/internal/types"
)

var (
	// ErrInvalidInput is returned when a required field (name on create,
	// id on update) is missing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when no student matches an id or name.
	ErrNotFound = errors.New("student not found")
)

// Storage is the student store contract.
// Every method is atomic with respect to every other method.
type Storage interface {
	// GetStudents returns a snapshot of every stored student.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents() ([]types.Student, error)

	// GetStudentByID returns the student with the given id or ErrNotFound.
	GetStudentByID(id string) (types.Student, error)

	// GetStudentByName returns the first stored student whose name equals
	// name exactly. Names are not unique.
	GetStudentByName(name string) (types.Student, error)

	// CreateStudent stores a new student with a freshly generated id.
	// Returns ErrInvalidInput when name is empty.
	CreateStudent(name string) (types.Student, error)

	// UpdateStudent overwrites the stored student with the same id.
	// The name is only replaced when the incoming name is non-empty;
	// grade and address are always replaced, even with empty values.
	UpdateStudent(student types.Student) (types.Student, error)

	// DeleteStudentByID removes the student and returns it.
	// Returns ErrNotFound when nothing was removed.
	DeleteStudentByID(id string) (types.Student, error)
}

// SeedName is the name of the record every store starts with.
const SeedName = "Joe Senior"

// Seed inserts the startup record into st and returns it.
func Seed(st Storage) (types.Student, error) {
	created, err := st.CreateStudent(SeedName)
	if err != nil {
		return types.Student{}, fmt.Errorf("Seed: create: %w", err)
	}

	created.Grade = "First"
	created.Address = &types.Address{
		Street:     "111 Park Ave",
		City:       "New York",
		State:      "NY",
		PostalCode: "11111",
	}

	seeded, err := st.UpdateStudent(created)
	if err != nil {
		return types.Student{}, fmt.Errorf("Seed: update: %w", err)
	}

	return seeded, nil
}

// ListResult is the outcome of an asynchronous GetStudents call.
type ListResult struct {
	Students []types.Student
	Err      error
}

// ListAsync runs st.GetStudents in its own goroutine and delivers the
// result on the returned channel. The channel is buffered, so the
// goroutine finishes even when the caller stops waiting.
func ListAsync(st Storage) <-chan ListResult {
	result := make(chan ListResult, 1)
	go func() {
		defer close(result)
		students, err := st.GetStudents()
		result <- ListResult{Students: students, Err: err}
	}()
	return result
}
