// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives its dependencies and
// returns the func(http.ResponseWriter, *http.Request) the router needs:
//
//	router.HandleFunc("POST /api/students/{name}", student.New(store))
//
// New(store) runs once at startup; the returned closure runs per request.
//
// Lookups that find nothing are not faults here: Get, Create, Update and
// Delete answer 204 No Content when there is no record to return. Only
// uploads report a missing student as an error.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/aanand-mishra/student-registry/internal/upload"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

// Messages sent to clients of the upload route.
const (
	UploadSucceeded       = "Data uploaded successfully !!"
	UploadStudentNotFound = "Student not found. Please try again !!"
	UploadFailed          = "Error while uploading file. Please try again !!"
)

// UploadFormField is the multipart field carrying the uploaded file.
const UploadFormField = "file"

var validate = validator.New()

// Uploader stores a file for a student. *upload.Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, studentName, filename string, body io.Reader) (string, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students/{name}
// Creates a student with the given name and no grade or address.
//
// Success response (201 Created):
//
//	{ "id": "6f1c...", "name": "Ann" }
//
// An empty name yields 204 No Content.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		slog.Info("creating a student", slog.String("name", name))

		if err := validate.Var(name, "required"); err != nil {
			slog.Debug("student not created: name is empty")
			response.NoContent(w)
			return
		}

		student, err := store.CreateStudent(name)
		if errors.Is(err, storage.ErrInvalidInput) {
			response.NoContent(w)
			return
		}
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student created", slog.String("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Success response (200 OK):
//
//	{ "id": "6f1c...", "name": "Joe Senior", "grade": "First", "address": {...} }
//
// Unknown ids yield 204 No Content.
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.NoContent(w)
			return
		}
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students and returns a JSON array of all
// students, [] when there are none.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetListAsync handles GET /api/studentscf. It returns the same document
// as GetList but takes the snapshot through storage.ListAsync and stops
// waiting when the request context ends.
func GetListAsync(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students asynchronously")

		select {
		case result := <-storage.ListAsync(store):
			if result.Err != nil {
				slog.Error("error getting students", slog.String("error", result.Err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(result.Err))
				return
			}
			response.WriteJSON(w, http.StatusOK, result.Students)
		case <-r.Context().Done():
			slog.Warn("gave up waiting for students", slog.String("error", r.Context().Err().Error()))
			response.WriteJSON(w, http.StatusGatewayTimeout, response.GeneralError(r.Context().Err()))
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students
// The id travels in the body, not the path.
//
// Request body (JSON):
//
//	{ "id": "6f1c...", "name": "", "grade": "Second" }
//
// An empty name keeps the stored one. Grade and address are always
// replaced, so the request above also removes the address.
//
// A body without an id, or with an unknown id, yields 204 No Content.
// Malformed JSON yields 400.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("updating a student")

		var student types.Student
		err := json.NewDecoder(r.Body).Decode(&student)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Struct(student); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				slog.Debug("student not updated",
					slog.String("reason", response.ValidationError(validateErrs).Error))
			}
			response.NoContent(w)
			return
		}

		updated, err := store.UpdateStudent(student)
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidInput) {
			slog.Debug("student not updated", slog.String("reason", err.Error()))
			response.NoContent(w)
			return
		}
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", student.ID),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student updated", slog.String("id", updated.ID))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id} and returns the removed
// student. Unknown ids yield 204 No Content.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		removed, err := store.DeleteStudentByID(id)
		if errors.Is(err, storage.ErrNotFound) {
			response.NoContent(w)
			return
		}
		if err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, removed)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Upload handles POST /api/upload/{student}
// Expects multipart/form-data with the file in the "file" field. The body
// is streamed part by part, never parsed into memory as a whole.
//
// Responses:
//
//	200 OK           — { "status": "ok", "message": "Data uploaded successfully !!" }
//	400 Bad Request  — no multipart "file" part, or an unusable name
//	404 Not Found    — no student with that name
//	500 Internal     — the file could not be written
//
// ─────────────────────────────────────────────────────────────────────────────
func Upload(uploader Uploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("student")
		slog.Info("uploading a file", slog.String("student", name))

		reader, err := r.MultipartReader()
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				response.WriteJSON(w, http.StatusBadRequest,
					response.GeneralError(errors.New("multipart field \"file\" is missing")))
				return
			}
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			if part.FormName() != UploadFormField {
				_ = part.Close()
				continue
			}

			dest, err := uploader.Upload(r.Context(), name, part.FileName(), part)
			_ = part.Close()
			writeUploadResult(w, name, dest, err)
			return
		}
	}
}

func writeUploadResult(w http.ResponseWriter, name, dest string, err error) {
	switch {
	case err == nil:
		slog.Info("file uploaded", slog.String("student", name), slog.String("destination", dest))
		response.WriteJSON(w, http.StatusOK, response.OK(UploadSucceeded))
	case errors.Is(err, storage.ErrNotFound):
		slog.Info("upload rejected", slog.String("student", name), slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusNotFound,
			response.GeneralError(errors.New(UploadStudentNotFound)))
	case errors.Is(err, upload.ErrInvalidName):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	default:
		slog.Error("error uploading file", slog.String("student", name), slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError,
			response.GeneralError(errors.New(UploadFailed)))
	}
}
