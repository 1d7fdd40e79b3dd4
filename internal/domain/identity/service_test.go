package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

// -- Mock User Repository --

type mockUserRepo struct {
	users map[string]*User
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[u.Username]; ok {
		return apperror.ErrDuplicateUser
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}

// -- Mock Patient Repository --

type mockPatientRepo struct {
	patients map[int64]*Patient
	nextID   int64
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[int64]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperror.NotFound("patient", id)
	}
	return p, nil
}

func (m *mockPatientRepo) List(_ context.Context, pg pagination.Params) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	start, end := pg.Window(len(result))
	return result[start:end], len(result), nil
}

func (m *mockPatientRepo) Count(_ context.Context) (int, error) {
	return len(m.patients), nil
}

func newTestService() *Service {
	return NewService(newMockUserRepo(), newMockPatientRepo(), bcrypt.MinCost, zerolog.Nop())
}

// -- Credential Tests --

func TestService_RegisterThenAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Username: "Dr. Rao", Password: "s3cret-pass", Role: "doctor", Specialization: "Cardiology"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != auth.RoleDoctor {
		t.Errorf("expected role Doctor, got %s", u.Role)
	}
	if u.PasswordHash == "s3cret-pass" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", u.PasswordHash)
	}

	p, err := svc.Authenticate(ctx, "Dr. Rao", "s3cret-pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Role != auth.RoleDoctor || p.Specialization != "Cardiology" {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestService_Authenticate_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterRequest{Username: "desk", Password: "front-desk-1", Role: "Receptionist"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPw := svc.Authenticate(ctx, "desk", "not-the-password")
	_, unknown := svc.Authenticate(ctx, "nobody", "front-desk-1")

	if !errors.Is(wrongPw, apperror.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication for wrong password, got %v", wrongPw)
	}
	if !errors.Is(unknown, apperror.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication for unknown user, got %v", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Errorf("expected identical messages, got %q and %q", wrongPw, unknown)
	}
}

func TestService_Authenticate_StorageErrorPropagates(t *testing.T) {
	users := newMockUserRepo()
	users.err = apperror.Storage("get user", errors.New("connection refused"))
	svc := NewService(users, newMockPatientRepo(), bcrypt.MinCost, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "desk", "whatever-pass")
	if !apperror.IsStorage(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	req := RegisterRequest{Username: "admin", Password: "admin-pass-1", Role: "Admin"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, apperror.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Password: "long-enough", Role: "Admin"}},
		{"bad username chars", RegisterRequest{Username: "rao'; --", Password: "long-enough", Role: "Admin"}},
		{"short password", RegisterRequest{Username: "desk", Password: "short", Role: "Receptionist"}},
		{"long password", RegisterRequest{Username: "desk", Password: strings.Repeat("p", 73), Role: "Receptionist"}},
		{"unknown role", RegisterRequest{Username: "desk", Password: "long-enough", Role: "Janitor"}},
		{"specialization on patient", RegisterRequest{Username: "pat", Password: "long-enough", Role: "Patient", Specialization: "Ortho"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService().Register(context.Background(), tt.req)
			if !apperror.IsValidation(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestService_Register_TrimsUsername(t *testing.T) {
	svc := newTestService()
	u, err := svc.Register(context.Background(), RegisterRequest{Username: "  desk  ", Password: "long-enough", Role: "Receptionist"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "desk" {
		t.Errorf("expected trimmed username, got %q", u.Username)
	}
	if _, err := svc.Authenticate(context.Background(), " desk", "long-enough"); err != nil {
		t.Errorf("expected login with padded username to succeed, got %v", err)
	}
}

// -- Patient Tests --

func TestService_CreatePatient_ThenList(t *testing.T) {
	svc := newTestService()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Username: "desk", Role: auth.RoleReceptionist})

	in := &Patient{Name: " Asha Verma ", Age: 34, Gender: "Female", Phone: "98450 00000", Address: "12 MG Road"}
	if err := svc.CreatePatient(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if in.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if in.CreatedBy != "desk" {
		t.Errorf("expected created_by desk, got %q", in.CreatedBy)
	}

	list, total, err := svc.ListPatients(ctx, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected 1 patient, got %d/%d", len(list), total)
	}
	got := list[0]
	if got.Name != "Asha Verma" || got.Age != 34 || got.Gender != "Female" || got.Phone != "98450 00000" || got.Address != "12 MG Road" {
		t.Errorf("fields do not match: %+v", got)
	}
}

func TestService_CreatePatient_UniqueIDs(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		p := &Patient{Name: "P", Age: 40}
		if err := svc.CreatePatient(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %d", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestService_CreatePatient_AgeBounds(t *testing.T) {
	svc := newTestService()
	for _, age := range []int{0, -1, 121, 500} {
		err := svc.CreatePatient(context.Background(), &Patient{Name: "X", Age: age})
		if !apperror.IsValidation(err) {
			t.Errorf("age %d: expected ValidationError, got %v", age, err)
		}
	}
	for _, age := range []int{MinAge, MaxAge} {
		if err := svc.CreatePatient(context.Background(), &Patient{Name: "X", Age: age}); err != nil {
			t.Errorf("age %d: unexpected error %v", age, err)
		}
	}
}

func TestService_CreatePatient_RequiresName(t *testing.T) {
	err := newTestService().CreatePatient(context.Background(), &Patient{Name: "   ", Age: 30})
	if !apperror.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_GetPatient_NotFound(t *testing.T) {
	_, err := newTestService().GetPatient(context.Background(), 99)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
