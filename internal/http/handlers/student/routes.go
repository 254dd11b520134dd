package student

import (
	"net/http"

	"github.com/aanand-mishra/student-registry/internal/storage"
)

// RegisterRoutes wires every student route into router.
//
// Route table:
//
//	GET    /api/students          → list all students
//	GET    /api/studentscf        → list all students, asynchronous variant
//	GET    /api/students/{id}     → get one student by id
//	POST   /api/students/{name}   → create a student named {name}
//	PUT    /api/students          → update the student identified in the body
//	DELETE /api/students/{id}     → delete a student
//	POST   /api/upload/{student}  → upload a file for the student named {student}
func RegisterRoutes(router *http.ServeMux, store storage.Storage, uploader Uploader) {
	router.HandleFunc("GET /api/students", GetList(store))
	router.HandleFunc("GET /api/studentscf", GetListAsync(store))
	router.HandleFunc("GET /api/students/{id}", GetByID(store))
	router.HandleFunc("POST /api/students/{name}", New(store))
	router.HandleFunc("PUT /api/students", Update(store))
	router.HandleFunc("DELETE /api/students/{id}", Delete(store))
	router.HandleFunc("POST /api/upload/{student}", Upload(uploader))
}
