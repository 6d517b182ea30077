package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/studentrecords/apiserver/internal/store"
	"github.com/studentrecords/apiserver/types"
)

// fakeUsers mirrors the conditional semantics of store.UserRepository.
type fakeUsers struct {
	mu      sync.Mutex
	nextID  int
	rows    map[int]*types.User
	deleted []int

	deleteCtxErr error
	deleteErr    error
	failWith     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[int]*types.User)}
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	for _, row := range f.rows {
		if row.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	stored := user
	f.rows[user.ID] = &stored
	return user, nil
}

// insert adds a row as-is, bypassing the write path.
func (f *fakeUsers) insert(user types.User) types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	stored := user
	f.rows[user.ID] = &stored
	return user
}

func (f *fakeUsers) get(id int) (types.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return types.User{}, false
	}
	return *row, true
}

func (f *fakeUsers) find(match func(*types.User) bool) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	for _, row := range f.rows {
		if match(row) {
			return *row, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (types.User, error) {
	return f.find(func(u *types.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	return f.find(func(u *types.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByVerificationToken(_ context.Context, token string) (types.User, error) {
	return f.find(func(u *types.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (f *fakeUsers) GetByResetToken(_ context.Context, token string, now time.Time) (types.User, error) {
	return f.find(func(u *types.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
	})
}

func (f *fakeUsers) update(match func(*types.User) bool, apply func(*types.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if match(row) {
			apply(row)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeUsers) MarkVerified(_ context.Context, id int, token string) error {
	return f.update(
		func(u *types.User) bool {
			return u.ID == id && u.VerificationToken != nil && *u.VerificationToken == token
		},
		func(u *types.User) {
			u.Verified = true
			u.VerificationToken = nil
		},
	)
}

func (f *fakeUsers) SetResetToken(_ context.Context, email, token string, expires time.Time) error {
	return f.update(
		func(u *types.User) bool { return u.Email == email && u.Verified },
		func(u *types.User) {
			u.ResetToken = &token
			u.ResetTokenExpiry = &expires
		},
	)
}

func (f *fakeUsers) ResetPassword(_ context.Context, id int, token, hash string) error {
	return f.update(
		func(u *types.User) bool {
			return u.ID == id && u.ResetToken != nil && *u.ResetToken == token
		},
		func(u *types.User) {
			u.PasswordHash = hash
			u.ResetToken = nil
			u.ResetTokenExpiry = nil
		},
	)
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	return f.update(
		func(u *types.User) bool { return u.ID == id },
		func(u *types.User) { u.PasswordHash = hash },
	)
}

func (f *fakeUsers) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCtxErr = ctx.Err()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessions struct{}

func (fakeSessions) Issue(userID int) (string, error) {
	return "session-" + strconv.Itoa(userID), nil
}

type sentToken struct {
	kind  string
	email string
	token string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentToken
	err    error
	before func()
}

func (n *fakeNotifier) SendVerification(_ context.Context, email, token string) error {
	return n.push("verification", email, token)
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	return n.push("reset", email, token)
}

func (n *fakeNotifier) push(kind, email, token string) error {
	if n.before != nil {
		n.before()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentToken{kind: kind, email: email, token: token})
	return nil
}

func (n *fakeNotifier) last(kind string) (sentToken, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == kind {
			return n.sent[i], true
		}
	}
	return sentToken{}, false
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results map[string][]string
}

func (r *fakeRecorder) AuthOperation(operation, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string][]string)
	}
	r.results[operation] = append(r.results[operation], result)
}

type fakeStudents struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Student
	err    error
}

func newFakeStudents() *fakeStudents {
	return &fakeStudents{rows: make(map[int]types.Student)}
}

func (f *fakeStudents) List(context.Context) ([]types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Student, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStudents) Get(_ context.Context, id int) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return types.Student{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStudents) Create(_ context.Context, s types.Student) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.Student{}, f.err
	}
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = s
	return s, nil
}

func (f *fakeStudents) Update(_ context.Context, s types.Student) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[s.ID]; !ok {
		return types.Student{}, store.ErrNotFound
	}
	f.rows[s.ID] = s
	return s, nil
}

func (f *fakeStudents) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

var errBoom = errors.New("boom")
