package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/studentrecords/apiserver/internal/store"
	"github.com/studentrecords/apiserver/types"
)

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	List(ctx context.Context) ([]types.Student, error)
	Get(ctx context.Context, id int) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id int) error
}

// StudentService encapsulates student use-cases.
type StudentService struct {
	repo StudentRepository
}

func NewStudentService(repo StudentRepository) *StudentService {
	return &StudentService{repo: repo}
}

func (s *StudentService) List(ctx context.Context) ([]types.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal("STORE_FAILED", "list students", err)
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id int) (types.Student, error) {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Student{}, studentError("get student", err)
	}
	return student, nil
}

func (s *StudentService) Create(ctx context.Context, student types.Student) (types.Student, error) {
	student, err := normalizeStudent(student)
	if err != nil {
		return types.Student{}, err
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return types.Student{}, internal("STORE_FAILED", "create student", err)
	}
	return created, nil
}

func (s *StudentService) Update(ctx context.Context, student types.Student) (types.Student, error) {
	student, err := normalizeStudent(student)
	if err != nil {
		return types.Student{}, err
	}
	updated, err := s.repo.Update(ctx, student)
	if err != nil {
		return types.Student{}, studentError("update student", err)
	}
	return updated, nil
}

func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return studentError("delete student", err)
	}
	return nil
}

func normalizeStudent(student types.Student) (types.Student, error) {
	student.Name = strings.TrimSpace(student.Name)
	student.Lastname = strings.TrimSpace(student.Lastname)
	student.Code = strings.TrimSpace(student.Code)
	student.DNI = strings.TrimSpace(student.DNI)
	student.Phone = strings.TrimSpace(student.Phone)

	if student.Name == "" || student.Lastname == "" {
		return types.Student{}, fmt.Errorf("%w: name and lastname are required", ErrValidation)
	}
	if student.Age < 0 {
		return types.Student{}, fmt.Errorf("%w: age must not be negative", ErrValidation)
	}
	return student, nil
}

func studentError(operation string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrStudentNotFound
	}
	return internal("STORE_FAILED", operation, err)
}
