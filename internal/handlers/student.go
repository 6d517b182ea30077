package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/types"
)

const msgStudentDeleted = "student deleted successfully"

// StudentService is the student resource used by the CRUD endpoints.
type StudentService interface {
	List(ctx context.Context) ([]types.Student, error)
	Get(ctx context.Context, id int) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id int) error
}

// StudentHandler provides HTTP handlers for students.
type StudentHandler struct {
	students StudentService
	lg       zerolog.Logger
}

func NewStudentHandler(students StudentService, lg zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		lg:       lg.With().Str("component", "student_handler").Logger(),
	}
}

// StudentRouter registers student routes on the given router. The routes
// are public unless authMiddleware is non-nil.
func StudentRouter(r chi.Router, students StudentService, authMiddleware func(http.Handler) http.Handler, lg zerolog.Logger) {
	handler := NewStudentHandler(students, lg)

	if authMiddleware != nil {
		r = r.With(authMiddleware)
	}
	r.Get("/", handler.ListStudents)
	r.Post("/", handler.CreateStudent)
	r.Route("/{studentID}", func(r chi.Router) {
		r.Get("/", handler.GetStudent)
		r.Put("/", handler.UpdateStudent)
		r.Delete("/", handler.DeleteStudent)
	})
}

func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to list students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to fetch student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Create(r.Context(), req.toStudent(0))
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req StudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Update(r.Context(), req.toStudent(id))
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to update student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.lg, err, "failed to delete student")
		return
	}
	writeMessage(w, http.StatusOK, msgStudentDeleted)
}

type StudentRequest struct {
	Name     string `json:"name" validate:"required"`
	Lastname string `json:"lastname" validate:"required"`
	Age      int    `json:"age" validate:"gte=0"`
	Code     string `json:"code"`
	DNI      string `json:"dni"`
	Phone    string `json:"phone"`
}

func (req StudentRequest) toStudent(id int) types.Student {
	return types.Student{
		ID:       id,
		Name:     req.Name,
		Lastname: req.Lastname,
		Age:      req.Age,
		Code:     req.Code,
		DNI:      req.DNI,
		Phone:    req.Phone,
	}
}
