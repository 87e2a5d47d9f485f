package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sitehaven/sitehaven/pkg/access"
	"github.com/sitehaven/sitehaven/pkg/auth"
	"github.com/sitehaven/sitehaven/pkg/provision"
	"github.com/sitehaven/sitehaven/pkg/resources"
	"github.com/sitehaven/sitehaven/pkg/tenants"
)

// fakeSessions maps bearer tokens to users.
type fakeSessions struct {
	users map[string]*auth.User
}

func (f *fakeSessions) Login(_ context.Context, email, password string) (*auth.Session, string, error) {
	for token, user := range f.users {
		if user.Email == email && password == "correct-password" {
			return &auth.Session{ID: "sess-" + user.ID, UserID: user.ID}, token, nil
		}
	}
	return nil, "", errors.New("invalid credentials")
}

func (f *fakeSessions) Validate(_ context.Context, token string) (*auth.User, *auth.Session, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, nil, errors.New("invalid credentials")
	}
	return user, &auth.Session{ID: "sess-" + user.ID, UserID: user.ID}, nil
}

func (f *fakeSessions) Logout(context.Context, string) error { return nil }

// memoryStore is an in-memory resources.Store honoring verdict scoping.
type memoryStore struct {
	records map[string]*resources.Record

	lastListVerdict access.Verdict
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*resources.Record)}
}

func (s *memoryStore) visible(record *resources.Record, verdict access.Verdict) bool {
	if !verdict.Permits() {
		return false
	}
	if filter := verdict.Filter(); filter != nil {
		return filter.Matches(record.TenantID)
	}
	return true
}

func (s *memoryStore) List(_ context.Context, collection string, verdict access.Verdict) ([]*resources.Record, error) {
	s.lastListVerdict = verdict
	if !verdict.Permits() {
		return nil, nil
	}
	var out []*resources.Record
	for _, record := range s.records {
		if record.Collection == collection && s.visible(record, verdict) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memoryStore) Get(_ context.Context, collection, id string, verdict access.Verdict) (*resources.Record, error) {
	record, ok := s.records[id]
	if !ok || record.Collection != collection || !s.visible(record, verdict) {
		return nil, resources.ErrRecordNotFound
	}
	return record, nil
}

func (s *memoryStore) Create(_ context.Context, record *resources.Record) error {
	if record.TenantID == "" {
		return errors.New("tenant is required")
	}
	s.records[record.ID] = record
	return nil
}

func (s *memoryStore) Update(_ context.Context, record *resources.Record, verdict access.Verdict) error {
	existing, ok := s.records[record.ID]
	if !ok || existing.Collection != record.Collection || !s.visible(existing, verdict) {
		return resources.ErrRecordNotFound
	}
	existing.Name = record.Name
	existing.Data = record.Data
	existing.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *memoryStore) Delete(_ context.Context, collection, id string, verdict access.Verdict) error {
	existing, ok := s.records[id]
	if !ok || existing.Collection != collection || !s.visible(existing, verdict) {
		return resources.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *memoryStore) SingletonExists(_ context.Context, collection, tenantID string) (string, bool, error) {
	for _, record := range s.records {
		if record.Collection == collection && record.TenantID == tenantID {
			return record.ID, true, nil
		}
	}
	return "", false, nil
}

// memoryTenants is an in-memory tenants.Service.
type memoryTenants struct {
	tenants map[string]*tenants.Tenant
}

func newMemoryTenants(seed ...*tenants.Tenant) *memoryTenants {
	m := &memoryTenants{tenants: make(map[string]*tenants.Tenant)}
	for _, tenant := range seed {
		m.tenants[tenant.ID] = tenant
	}
	return m
}

func (m *memoryTenants) CreateTenant(_ context.Context, tenant *tenants.Tenant) error {
	for _, existing := range m.tenants {
		if existing.Domain == tenant.Domain {
			return tenants.ErrDomainTaken
		}
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *memoryTenants) GetTenant(_ context.Context, id string) (*tenants.Tenant, error) {
	tenant, ok := m.tenants[id]
	if !ok {
		return nil, tenants.ErrTenantNotFound
	}
	return tenant, nil
}

func (m *memoryTenants) GetTenantByDomain(_ context.Context, domain string) (*tenants.Tenant, error) {
	for _, tenant := range m.tenants {
		if tenant.Domain == domain {
			return tenant, nil
		}
	}
	return nil, tenants.ErrTenantNotFound
}

func (m *memoryTenants) ListTenants(context.Context) ([]*tenants.Tenant, error) {
	var out []*tenants.Tenant
	for _, tenant := range m.tenants {
		out = append(out, tenant)
	}
	return out, nil
}

func (m *memoryTenants) UpdateTenant(_ context.Context, tenant *tenants.Tenant) error {
	if _, ok := m.tenants[tenant.ID]; !ok {
		return tenants.ErrTenantNotFound
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *memoryTenants) DeleteTenant(_ context.Context, id string) error {
	if _, ok := m.tenants[id]; !ok {
		return tenants.ErrTenantNotFound
	}
	delete(m.tenants, id)
	return nil
}

// memoryUsers is an in-memory auth.UserStore.
type memoryUsers struct {
	users map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*auth.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *auth.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) GetUser(_ context.Context, id string) (*auth.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *memoryUsers) ListUsersByTenant(_ context.Context, tenantID string) ([]*auth.User, error) {
	var out []*auth.User
	for _, user := range m.users {
		if user.HomeTenant() == tenantID {
			out = append(out, user)
		}
	}
	return out, nil
}

func (m *memoryUsers) UpdateUser(_ context.Context, user *auth.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return errors.New("user not found")
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryUsers) PromoteSuperAdmin(_ context.Context, email string) error {
	for _, user := range m.users {
		if user.Email == email {
			user.IsSuperAdmin = true
			return nil
		}
	}
	return errors.New("user not found")
}

func (m *memoryUsers) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return errors.New("user not found")
	}
	delete(m.users, id)
	return nil
}

// testEnv bundles the server and its fakes for handler tests.
type testEnv struct {
	server   *Server
	store    *memoryStore
	tenants  *memoryTenants
	sessions *fakeSessions
	users    *memoryUsers
}

const (
	tenantOneID = "tenant-1"
	tenantTwoID = "tenant-2"

	tokenSuper   = "token-super"
	tokenAdmin   = "token-admin-t1"
	tokenEditor  = "token-editor-t1"
	tokenUserTwo = "token-user-t2"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tenantOne := &tenants.Tenant{ID: tenantOneID, Name: "Tenant One", Domain: "one", Status: tenants.TenantStatusActive}
	tenantTwo := &tenants.Tenant{ID: tenantTwoID, Name: "Tenant Two", Domain: "two", Status: tenants.TenantStatusActive}

	t1 := tenantOneID
	t2 := tenantTwoID
	sessions := &fakeSessions{users: map[string]*auth.User{
		tokenSuper:   {ID: "user-super", Email: "super@example.com", IsSuperAdmin: true, IsActive: true},
		tokenAdmin:   {ID: "user-admin", Email: "admin@one.test", TenantID: &t1, Role: auth.RoleAdmin, IsActive: true},
		tokenEditor:  {ID: "user-editor", Email: "editor@one.test", TenantID: &t1, Role: auth.RoleEditor, IsActive: true},
		tokenUserTwo: {ID: "user-two", Email: "member@two.test", TenantID: &t2, Role: auth.RoleUser, IsActive: true},
	}}

	store := newMemoryStore()
	tenantService := newMemoryTenants(tenantOne, tenantTwo)
	names, err := resources.NewNameResolver(tenantService)
	require.NoError(t, err)
	users := newMemoryUsers()
	for _, user := range sessions.users {
		users.users[user.ID] = user
	}

	server := NewServer(Dependencies{
		Sessions:    sessions,
		Users:       users,
		Tenants:     tenantService,
		Store:       store,
		Names:       names,
		Registry:    resources.DefaultRegistry(),
		Provisioner: provision.NewProvisioner(tenantService, store, users, resources.DefaultRegistry()),
	})

	return &testEnv{server: server, store: store, tenants: tenantService, sessions: sessions, users: users}
}

// do executes a request through the full middleware chain.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) *resources.Record {
	t.Helper()
	var record resources.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	return &record
}
