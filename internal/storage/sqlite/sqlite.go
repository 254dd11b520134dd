// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The default data source is ":memory:", so the database lives exactly as
// long as the process. The pool is limited to a single connection: every
// connection to ":memory:" would otherwise open its own empty database,
// and one connection also serialises all operations the same way the
// in-memory registry's mutex does.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the SQL implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Schema:
	//   seq     — insertion order, used for List and name lookups
	//   id      — UUID assigned on creation
	//   address — JSON document, NULL when the student has no address
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			id      TEXT    NOT NULL UNIQUE,
			name    TEXT    NOT NULL,
			grade   TEXT    NOT NULL DEFAULT '',
			address TEXT
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the database. For ":memory:" this discards every record.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *SQLite) CreateStudent(name string) (types.Student, error) {
	if name == "" {
		return types.Student{}, fmt.Errorf("CreateStudent: name is empty: %w", storage.ErrInvalidInput)
	}

	stmt, err := s.Db.Prepare("INSERT INTO students (id, name) VALUES (?, ?)")
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	student := types.Student{ID: uuid.NewString(), Name: name}
	if _, err := stmt.Exec(student.ID, student.Name); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return student, nil
}

func (s *SQLite) GetStudentByID(id string) (types.Student, error) {
	return getStudentByID(s.Db, id)
}

func getStudentByID(q queryer, id string) (types.Student, error) {
	row := q.QueryRow("SELECT id, name, grade, address FROM students WHERE id = ? LIMIT 1", id)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("no student found with id %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudentByName returns the earliest inserted student with the given name.
func (s *SQLite) GetStudentByName(name string) (types.Student, error) {
	row := s.Db.QueryRow(
		"SELECT id, name, grade, address FROM students WHERE name = ? ORDER BY seq LIMIT 1",
		name,
	)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, fmt.Errorf("no student found with name %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByName: scan: %w", err)
	}

	return student, nil
}

func (s *SQLite) GetStudents() ([]types.Student, error) {
	rows, err := s.Db.Query("SELECT id, name, grade, address FROM students ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudent keeps the stored name when student.Name is empty and
// always overwrites grade and address.
func (s *SQLite) UpdateStudent(student types.Student) (types.Student, error) {
	if student.ID == "" {
		return types.Student{}, fmt.Errorf("UpdateStudent: id is empty: %w", storage.ErrInvalidInput)
	}

	address, err := encodeAddress(student.Address)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: encode address: %w", err)
	}

	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(
		`UPDATE students
		    SET name = CASE WHEN ? = '' THEN name ELSE ? END,
		        grade = ?,
		        address = ?
		  WHERE id = ?`,
		student.Name, student.Name, student.Grade, address, student.ID,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: rows affected: %w", err)
	}
	if affected == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %q: %w", student.ID, storage.ErrNotFound)
	}

	updated, err := getStudentByID(tx, student.ID)
	if err != nil {
		return types.Student{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: commit: %w", err)
	}

	return updated, nil
}

func (s *SQLite) DeleteStudentByID(id string) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	student, err := getStudentByID(tx, id)
	if err != nil {
		return types.Student{}, err
	}

	if _, err := tx.Exec("DELETE FROM students WHERE id = ?", id); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: commit: %w", err)
	}

	return student, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		address sql.NullString
	)

	if err := row.Scan(&student.ID, &student.Name, &student.Grade, &address); err != nil {
		return types.Student{}, err
	}

	if address.Valid {
		student.Address = &types.Address{}
		if err := json.Unmarshal([]byte(address.String), student.Address); err != nil {
			return types.Student{}, fmt.Errorf("decode address: %w", err)
		}
	}

	return student, nil
}

func encodeAddress(address *types.Address) (any, error) {
	if address == nil {
		return nil, nil
	}
	data, err := json.Marshal(address)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
