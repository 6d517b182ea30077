package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/studentrecords/apiserver/types"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) List(ctx context.Context) ([]types.Student, error) {
	const query = `
		SELECT id, name, lastname, age, code, dni, phone, created_at, updated_at
		FROM students
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Lastname,
			&student.Age,
			&student.Code,
			&student.DNI,
			&student.Phone,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *StudentRepository) Get(ctx context.Context, id int) (types.Student, error) {
	const query = `
		SELECT id, name, lastname, age, code, dni, phone, created_at, updated_at
		FROM students
		WHERE id = $1`
	var student types.Student
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID,
		&student.Name,
		&student.Lastname,
		&student.Age,
		&student.Code,
		&student.DNI,
		&student.Phone,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, ErrNotFound
		}
		return types.Student{}, err
	}
	return student, nil
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `
		INSERT INTO students (name, lastname, age, code, dni, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		student.Name,
		student.Lastname,
		student.Age,
		student.Code,
		student.DNI,
		student.Phone,
		student.CreatedAt,
		student.UpdatedAt,
	).Scan(&student.ID); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

func (r *StudentRepository) Update(ctx context.Context, student types.Student) (types.Student, error) {
	student.UpdatedAt = time.Now()

	const query = `
		UPDATE students
		SET name = $1,
			lastname = $2,
			age = $3,
			code = $4,
			dni = $5,
			phone = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		student.Name,
		student.Lastname,
		student.Age,
		student.Code,
		student.DNI,
		student.Phone,
		student.UpdatedAt,
		student.ID,
	).Scan(&student.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, ErrNotFound
		}
		return types.Student{}, err
	}
	return student, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM students WHERE id = $1`
	return execOne(ctx, r.db, query, id)
}
