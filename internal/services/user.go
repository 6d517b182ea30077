package services

import (
	"context"
	"errors"

	"github.com/studentrecords/apiserver/internal/store"
	"github.com/studentrecords/apiserver/types"
)

// UserReader loads a single user.
type UserReader interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// Profile is the signed-in user together with the student roster.
type Profile struct {
	User     types.User
	Students []types.Student
}

// UserService encapsulates user use-cases.
type UserService struct {
	users    UserReader
	students StudentRepository
}

func NewUserService(users UserReader, students StudentRepository) *UserService {
	return &UserService{users: users, students: students}
}

func (s *UserService) Profile(ctx context.Context, userID int) (Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, internal("STORE_FAILED", "load profile user", err)
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return Profile{}, internal("STORE_FAILED", "list students", err)
	}

	return Profile{User: user, Students: students}, nil
}
