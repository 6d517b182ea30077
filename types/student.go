package types

import "time"

// Student is a single record of the students resource.
type Student struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Lastname  string    `json:"lastname" db:"lastname"`
	Age       int       `json:"age" db:"age"`
	Code      string    `json:"code" db:"code"`
	DNI       string    `json:"dni" db:"dni"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
