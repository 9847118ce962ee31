package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/cuentas/internal/domain/repository"
	"github.com/dropDatabas3/cuentas/internal/email"
)

// Fakes in-memory de los repositorios, suficientes para ejercitar los
// flujos completos sin Postgres.

type fakeUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*repository.User // por ID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*repository.User{}}
}

func (f *fakeUsers) byEmail(email string) *repository.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) FindByParams(_ context.Context, p repository.FindUserParams, mode repository.MatchMode) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		phone := ""
		if u.Profile != nil {
			phone = u.Profile.Phone
		}
		matchID := p.ID != "" && u.ID == p.ID
		matchEmail := p.Email != "" && u.Email == p.Email
		matchPhone := p.Phone != "" && phone == p.Phone
		if mode == repository.MatchAny {
			if matchID || matchEmail || matchPhone {
				cp := *u
				return &cp, nil
			}
			continue
		}
		ok := true
		if p.ID != "" && !matchID {
			ok = false
		}
		if p.Email != "" && !matchEmail {
			ok = false
		}
		if p.Phone != "" && !matchPhone {
			ok = false
		}
		if ok && (p.ID != "" || p.Email != "" || p.Phone != "") {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.byEmail(in.Email)
	if existing != nil && existing.Status == repository.StatusActive {
		return nil, repository.ErrConflict
	}
	u := existing
	if u == nil {
		f.seq++
		u = &repository.User{ID: fmt.Sprintf("u-%d", f.seq), CreatedAt: time.Now()}
		f.users[u.ID] = u
	}
	u.Email = in.Email
	u.Username = in.Username
	u.PasswordHash = in.PasswordHash
	u.ReferralCode = in.ReferralCode
	u.RoleID = in.RoleID
	u.Type = in.Type
	u.Status = repository.StatusPending
	u.PIN = nil
	u.Profile = &repository.Profile{UserID: u.ID, Name: in.ProfileName, Phone: in.Phone}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Patch(_ context.Context, userID string, in repository.PatchUserInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	uf := in.UserFields
	if uf.PIN != nil {
		pin := *uf.PIN
		u.PIN = &pin
	}
	if uf.PasswordHash != nil {
		u.PasswordHash = *uf.PasswordHash
	}
	if uf.Status != nil {
		u.Status = *uf.Status
	}
	if uf.Username != nil {
		u.Username = *uf.Username
	}
	pf := in.ProfileFields
	if u.Profile == nil {
		u.Profile = &repository.Profile{UserID: u.ID}
	}
	if pf.Name != nil {
		u.Profile.Name = *pf.Name
	}
	if pf.Phone != nil {
		u.Profile.Phone = *pf.Phone
	}
	return nil
}

func (f *fakeUsers) SetStatus(_ context.Context, userID string, status int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	return nil
}

type fakeRoles struct {
	def *repository.Role
}

func (f *fakeRoles) GetDefault(context.Context) (*repository.Role, error) {
	if f.def == nil {
		return nil, repository.ErrNotFound
	}
	return f.def, nil
}

func (f *fakeRoles) GetByID(_ context.Context, id string) (*repository.Role, error) {
	if f.def != nil && f.def.ID == id {
		return f.def, nil
	}
	return nil, repository.ErrNotFound
}

type fakeOTPs struct {
	mu    sync.Mutex
	seq   int
	recs  map[string]*repository.OTPRecord // por data
	users *fakeUsers
	now   func() time.Time
}

func newFakeOTPs(users *fakeUsers, now func() time.Time) *fakeOTPs {
	return &fakeOTPs{recs: map[string]*repository.OTPRecord{}, users: users, now: now}
}

func (f *fakeOTPs) Upsert(_ context.Context, in repository.CreateOTPInput) (*repository.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[in.Data]
	if !ok {
		f.seq++
		rec = &repository.OTPRecord{ID: fmt.Sprintf("otp-%d", f.seq), Data: in.Data}
		f.recs[in.Data] = rec
	}
	rec.UserID = in.UserID
	rec.Code = in.Code
	rec.Purpose = in.Purpose
	rec.CreatedAt = f.now()
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPs) GetByData(_ context.Context, data string, code *int) (*repository.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[data]
	if !ok || (code != nil && rec.Code != *code) {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPs) Consume(ctx context.Context, record *repository.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[record.Data]
	if !ok || rec.ID != record.ID {
		return repository.ErrNotFound
	}
	f.users.mu.Lock()
	if u, ok := f.users.users[rec.UserID]; ok && u.Status == repository.StatusPending {
		u.Status = repository.StatusActive
	}
	f.users.mu.Unlock()
	delete(f.recs, record.Data)
	return nil
}

func (f *fakeOTPs) DeleteExpired(_ context.Context, ttl time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for data, rec := range f.recs {
		if f.now().Sub(rec.CreatedAt) > ttl {
			delete(f.recs, data)
			n++
		}
	}
	return n, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	rows map[string]*repository.RefreshSession // por userID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[string]*repository.RefreshSession{}}
}

func (f *fakeSessions) Upsert(_ context.Context, userID, token, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID] = &repository.RefreshSession{
		ID: "s-" + userID, UserID: userID, Token: token, IPAddress: ip, CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeSessions) GetByToken(_ context.Context, token, ip string) (*repository.RefreshSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.Token == token && s.IPAddress == ip {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID, ip string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[userID]
	if !ok || (ip != "" && s.IPAddress != ip) {
		return 0, nil
	}
	delete(f.rows, userID)
	return 1, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.OTPMessage
	fail error
}

func (f *fakeMailer) SendOTP(_ context.Context, msg email.OTPMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) lastCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return 0
	}
	return f.sent[len(f.sent)-1].Code
}
