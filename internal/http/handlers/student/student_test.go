package student

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/storage/memory"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/aanand-mishra/student-registry/internal/upload"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

func TestStudentHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(StudentHandlersTestSuite))
}

type StudentHandlersTestSuite struct {
	suite.Suite
	registry   *memory.Registry
	seeded     types.Student
	uploadRoot string
	router     *http.ServeMux
}

func (s *StudentHandlersTestSuite) SetupTest() {
	s.registry = memory.New()
	seeded, err := storage.Seed(s.registry)
	s.Require().NoError(err)
	s.seeded = seeded

	s.uploadRoot = s.T().TempDir()
	uploader, err := upload.New(s.uploadRoot, s.registry)
	s.Require().NoError(err)

	s.router = http.NewServeMux()
	RegisterRoutes(s.router, s.registry, uploader)
}

func (s *StudentHandlersTestSuite) serve(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, request)
	return recorder
}

func (s *StudentHandlersTestSuite) decodeStudent(body io.Reader) types.Student {
	var student types.Student
	s.Require().NoError(json.NewDecoder(body).Decode(&student))
	return student
}

func (s *StudentHandlersTestSuite) TestListReturnsSeededStudent() {
	for _, path := range []string{"/api/students", "/api/studentscf"} {
		recorder := s.serve(httptest.NewRequest(http.MethodGet, path, nil))
		s.Equal(http.StatusOK, recorder.Code, path)
		s.Equal("application/json", recorder.Header().Get("Content-Type"))

		var students []types.Student
		s.Require().NoError(json.NewDecoder(recorder.Body).Decode(&students))
		s.Equal([]types.Student{s.seeded}, students, path)
	}
}

func (s *StudentHandlersTestSuite) TestListAsyncGivesUpWhenRequestIsCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/studentscf", nil).WithContext(ctx)
	GetListAsync(blockingStorage{release: release}).ServeHTTP(recorder, request)

	s.Equal(http.StatusGatewayTimeout, recorder.Code)
}

func (s *StudentHandlersTestSuite) TestCreateReturnsNewStudent() {
	recorder := s.serve(httptest.NewRequest(http.MethodPost, "/api/students/Ann", nil))
	s.Require().Equal(http.StatusCreated, recorder.Code)

	ann := s.decodeStudent(recorder.Body)
	s.NotEmpty(ann.ID)
	s.Equal("Ann", ann.Name)
	s.Empty(ann.Grade)
	s.Nil(ann.Address)
	s.Equal(2, s.registry.Len())
}

func (s *StudentHandlersTestSuite) TestGetByID() {
	recorder := s.serve(httptest.NewRequest(http.MethodGet, "/api/students/"+s.seeded.ID, nil))
	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Equal(s.seeded, s.decodeStudent(recorder.Body))

	recorder = s.serve(httptest.NewRequest(http.MethodGet, "/api/students/missing", nil))
	s.Equal(http.StatusNoContent, recorder.Code)
	s.Empty(recorder.Body.String())
}

func (s *StudentHandlersTestSuite) TestUpdateKeepsNameWhenEmpty() {
	body := `{"id":"` + s.seeded.ID + `","grade":"Second"}`
	recorder := s.serve(httptest.NewRequest(http.MethodPut, "/api/students", strings.NewReader(body)))
	s.Require().Equal(http.StatusOK, recorder.Code)

	updated := s.decodeStudent(recorder.Body)
	s.Equal("Joe Senior", updated.Name)
	s.Equal("Second", updated.Grade)
	s.Nil(updated.Address)
}

func (s *StudentHandlersTestSuite) TestUpdateWithoutMatchingIDHasNoContent() {
	for _, body := range []string{`{"name":"Nobody"}`, `{"id":"missing","name":"Nobody"}`} {
		recorder := s.serve(httptest.NewRequest(http.MethodPut, "/api/students", strings.NewReader(body)))
		s.Equal(http.StatusNoContent, recorder.Code, body)
	}

	stored, err := s.registry.GetStudentByID(s.seeded.ID)
	s.Require().NoError(err)
	s.Equal(s.seeded, stored)
}

func (s *StudentHandlersTestSuite) TestUpdateRejectsMalformedBody() {
	for _, body := range []string{"", "{not json"} {
		recorder := s.serve(httptest.NewRequest(http.MethodPut, "/api/students", strings.NewReader(body)))
		s.Equal(http.StatusBadRequest, recorder.Code, body)

		var envelope response.Response
		s.Require().NoError(json.NewDecoder(recorder.Body).Decode(&envelope))
		s.Equal(response.StatusError, envelope.Status)
	}
}

func (s *StudentHandlersTestSuite) TestDeleteReturnsRemovedStudentOnce() {
	path := "/api/students/" + s.seeded.ID

	recorder := s.serve(httptest.NewRequest(http.MethodDelete, path, nil))
	s.Require().Equal(http.StatusOK, recorder.Code)
	s.Equal(s.seeded, s.decodeStudent(recorder.Body))

	recorder = s.serve(httptest.NewRequest(http.MethodDelete, path, nil))
	s.Equal(http.StatusNoContent, recorder.Code)
}

func (s *StudentHandlersTestSuite) newUploadRequest(student, field, filename string, data []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	s.Require().NoError(writer.WriteField("comment", "ignored"))
	part, err := writer.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/api/upload/"+student, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func (s *StudentHandlersTestSuite) TestUploadStoresFile() {
	_, err := s.registry.CreateStudent("Ann")
	s.Require().NoError(err)

	data := []byte("report contents")
	recorder := s.serve(s.newUploadRequest("Ann", UploadFormField, "a:b.txt", data))
	s.Require().Equal(http.StatusOK, recorder.Code)

	var envelope response.Response
	s.Require().NoError(json.NewDecoder(recorder.Body).Decode(&envelope))
	s.Equal(response.OK(UploadSucceeded), envelope)

	written, err := os.ReadFile(filepath.Join(s.uploadRoot, "Ann", "a_b.txt"))
	s.Require().NoError(err)
	s.Equal(data, written)
}

func (s *StudentHandlersTestSuite) TestUploadForUnknownStudent() {
	recorder := s.serve(s.newUploadRequest("Nobody", UploadFormField, "a.txt", []byte("x")))
	s.Equal(http.StatusNotFound, recorder.Code)

	var envelope response.Response
	s.Require().NoError(json.NewDecoder(recorder.Body).Decode(&envelope))
	s.Equal(UploadStudentNotFound, envelope.Error)

	_, err := os.Stat(filepath.Join(s.uploadRoot, "Nobody"))
	s.True(os.IsNotExist(err))
}

func (s *StudentHandlersTestSuite) TestUploadWithoutFilePart() {
	recorder := s.serve(s.newUploadRequest("Joe%20Senior", "other", "a.txt", []byte("x")))
	s.Equal(http.StatusBadRequest, recorder.Code)

	request := httptest.NewRequest(http.MethodPost, "/api/upload/Joe%20Senior", strings.NewReader("plain"))
	recorder = s.serve(request)
	s.Equal(http.StatusBadRequest, recorder.Code)
}

func (s *StudentHandlersTestSuite) TestUploadFailureIsReported() {
	recorder := httptest.NewRecorder()
	request := s.newUploadRequest("Ann", UploadFormField, "a.txt", []byte("x"))
	request.SetPathValue("student", "Ann")
	Upload(failingUploader{}).ServeHTTP(recorder, request)

	s.Equal(http.StatusInternalServerError, recorder.Code)

	var envelope response.Response
	s.Require().NoError(json.NewDecoder(recorder.Body).Decode(&envelope))
	s.Equal(UploadFailed, envelope.Error)
}

// blockingStorage does not finish listing until release is closed.
type blockingStorage struct {
	storage.Storage
	release chan struct{}
}

func (b blockingStorage) GetStudents() ([]types.Student, error) {
	<-b.release
	return nil, nil
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", upload.ErrUploadFailed
}
