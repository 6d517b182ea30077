package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentrecords/apiserver/types"
)

func TestStudentService_CRUD(t *testing.T) {
	svc := NewStudentService(newFakeStudents())
	ctx := context.Background()

	created, err := svc.Create(ctx, types.Student{Name: " Luis ", Lastname: "Perez", Age: 20, Code: "A001"})
	require.NoError(t, err)
	assert.Equal(t, "Luis", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A001", got.Code)

	got.Age = 21
	updated, err := svc.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 21, updated.Age)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentService_Validation(t *testing.T) {
	svc := NewStudentService(newFakeStudents())
	ctx := context.Background()

	_, err := svc.Create(ctx, types.Student{Name: "Luis"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(ctx, types.Student{Name: "Luis", Lastname: "Perez", Age: -1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Update(ctx, types.Student{ID: 1, Lastname: "Perez"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStudentService_NotFound(t *testing.T) {
	svc := NewStudentService(newFakeStudents())
	ctx := context.Background()

	_, err := svc.Update(ctx, types.Student{ID: 5, Name: "Luis", Lastname: "Perez"})
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 5), ErrStudentNotFound)
}

func TestStudentService_StoreFailure(t *testing.T) {
	repo := newFakeStudents()
	repo.err = errBoom
	svc := NewStudentService(repo)

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestUserService_Profile(t *testing.T) {
	users := newFakeUsers()
	students := newFakeStudents()
	user := users.insert(types.User{Name: "Ana", Email: "ana@x.com", Verified: true})
	_, err := students.Create(context.Background(), types.Student{Name: "Luis", Lastname: "Perez"})
	require.NoError(t, err)

	svc := NewUserService(users, students)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", profile.User.Email)
	assert.Len(t, profile.Students, 1)

	_, err = svc.Profile(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

