package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentrecords/apiserver/internal/services"
	"github.com/studentrecords/apiserver/types"
)

type memStudents struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Student
}

func newMemStudents() *memStudents {
	return &memStudents{rows: make(map[int]types.Student)}
}

func (m *memStudents) List(context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Student, 0, len(m.rows))
	for id := 1; id <= m.nextID; id++ {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStudents) Get(_ context.Context, id int) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return types.Student{}, services.ErrStudentNotFound
	}
	return s, nil
}

func (m *memStudents) Create(_ context.Context, s types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = s
	return s, nil
}

func (m *memStudents) Update(_ context.Context, s types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[s.ID]; !ok {
		return types.Student{}, services.ErrStudentNotFound
	}
	m.rows[s.ID] = s
	return s, nil
}

func (m *memStudents) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return services.ErrStudentNotFound
	}
	delete(m.rows, id)
	return nil
}

func newStudentTestRouter(students StudentService, guard func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/student", func(r chi.Router) {
		StudentRouter(r, students, guard, zerolog.Nop())
	})
	return r
}

func TestStudentCRUD(t *testing.T) {
	h := newStudentTestRouter(newMemStudents(), nil)

	rec, body := doJSON(t, h, http.MethodPost, "/student", `{"name":"Luis","lastname":"Perez","age":20,"code":"A001"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, body["id"])
	assert.Equal(t, "A001", body["code"])

	rec, body = doJSON(t, h, http.MethodGet, "/student/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Luis", body["name"])

	rec, body = doJSON(t, h, http.MethodPut, "/student/1", `{"name":"Luis","lastname":"Perez","age":21}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 21, body["age"])

	rec, _ = doJSON(t, h, http.MethodGet, "/student", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Luis","lastname":"Perez","age":21,"code":"","dni":"","phone":"","created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}]`, rec.Body.String())

	rec, body = doJSON(t, h, http.MethodDelete, "/student/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgStudentDeleted, body["message"])

	rec, body = doJSON(t, h, http.MethodGet, "/student/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "student not found", body["error"])
}

func TestStudent_BadInput(t *testing.T) {
	h := newStudentTestRouter(newMemStudents(), nil)

	rec, body := doJSON(t, h, http.MethodGet, "/student/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid studentID", body["error"])

	rec, body = doJSON(t, h, http.MethodPost, "/student", `{"name":"Luis"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields: lastname", body["error"])

	rec, body = doJSON(t, h, http.MethodPost, "/student", `{"name":"Luis","lastname":"Perez","age":-2}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid fields: age", body["error"])

	rec, _ = doJSON(t, h, http.MethodPut, "/student/9", `{"name":"Luis","lastname":"Perez"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudent_GuardedWhenConfigured(t *testing.T) {
	h := newStudentTestRouter(newMemStudents(), RequireAuth(fakeParser{}))

	rec, body := doJSON(t, h, http.MethodGet, "/student", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token not provided", body["error"])

	rec, _ = doJSON(t, h, http.MethodDelete, "/student/1", "", bearer("forged"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/student", "", bearer("good"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec, body := doJSON(t, http.HandlerFunc(Healthz), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
