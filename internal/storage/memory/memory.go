// Package memory provides the default storage.Storage implementation:
// a registry of students held in process memory.
//
// Every method takes the same mutex for its whole critical section, so
// a List snapshot can never observe a half-applied Create, Update or
// Delete. Nothing is persisted; the registry lives as long as the process.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// Registry is the in-memory student store.
// The zero value is not usable; call New.
type Registry struct {
	mu       sync.Mutex
	students map[string]types.Student

	// order keeps ids in insertion order so List and name lookups are stable.
	order []string
	newID func() string
}

// New returns an empty Registry. Use storage.Seed to add the startup record.
func New() *Registry {
	return &Registry{
		students: make(map[string]types.Student),
		newID:    uuid.NewString,
	}
}

// GetStudents returns a snapshot of all students in insertion order.
func (r *Registry) GetStudents() ([]types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	students := make([]types.Student, 0, len(r.order))
	for _, id := range r.order {
		students = append(students, r.students[id].Clone())
	}
	return students, nil
}

func (r *Registry) GetStudentByID(id string) (types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, ok := r.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("no student found with id %q: %w", id, storage.ErrNotFound)
	}
	return student.Clone(), nil
}

func (r *Registry) GetStudentByName(name string) (types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if student := r.students[id]; student.Name == name {
			return student.Clone(), nil
		}
	}
	return types.Student{}, fmt.Errorf("no student found with name %q: %w", name, storage.ErrNotFound)
}

// CreateStudent assigns a random UUID to a new student named name.
func (r *Registry) CreateStudent(name string) (types.Student, error) {
	if name == "" {
		return types.Student{}, fmt.Errorf("CreateStudent: name is empty: %w", storage.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.students[id]; !taken {
			break
		}
		id = r.newID()
	}

	student := types.Student{ID: id, Name: name}
	r.students[id] = student
	r.order = append(r.order, id)
	return student.Clone(), nil
}

// UpdateStudent replaces grade and address wholesale but keeps the stored
// name when the incoming one is empty.
func (r *Registry) UpdateStudent(student types.Student) (types.Student, error) {
	if student.ID == "" {
		return types.Student{}, fmt.Errorf("UpdateStudent: id is empty: %w", storage.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.students[student.ID]
	if !ok {
		return types.Student{}, fmt.Errorf("no student found with id %q: %w", student.ID, storage.ErrNotFound)
	}

	incoming := student.Clone()
	if incoming.Name != "" {
		stored.Name = incoming.Name
	}
	stored.Grade = incoming.Grade
	stored.Address = incoming.Address
	r.students[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *Registry) DeleteStudentByID(id string) (types.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, ok := r.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("no student found with id %q: %w", id, storage.ErrNotFound)
	}

	delete(r.students, id)
	for i, stored := range r.order {
		if stored == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return student, nil
}

// Len returns the number of stored students.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.students)
}
