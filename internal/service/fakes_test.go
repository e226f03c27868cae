package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"cost-sage/internal/models"
	"cost-sage/internal/repository"

	"github.com/google/uuid"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]string
	failNext error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID][]string)}
}

func (f *fakeSessionStore) Store(_ context.Context, s *models.Session, exclusive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	if exclusive {
		f.sessions[s.UserID] = nil
	}
	f.sessions[s.UserID] = append(f.sessions[s.UserID], s.Token)
	return nil
}

func (f *fakeSessionStore) Exists(_ context.Context, userID uuid.UUID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.sessions[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessionStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	return nil
}

func (f *fakeSessionStore) DeleteByToken(_ context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.sessions[userID][:0]
	for _, t := range f.sessions[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	f.sessions[userID] = kept
	return nil
}

type fakeExpenseStore struct {
	mu        sync.Mutex
	expenses  []*models.Expense
	createErr error
	batches   int
}

func (f *fakeExpenseStore) CreateBatch(_ context.Context, expenses []*models.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.batches++
	for _, e := range expenses {
		cp := *e
		f.expenses = append(f.expenses, &cp)
	}
	return nil
}

func (f *fakeExpenseStore) ListRecent(_ context.Context, email string, limit int) ([]*models.Expense, error) {
	out := f.filter(func(e *models.Expense) bool { return e.UserEmail == email })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeExpenseStore) ListByType(_ context.Context, email string, t models.ExpenseType) ([]*models.Expense, error) {
	out := f.filter(func(e *models.Expense) bool { return e.UserEmail == email && e.ExpenseType == t })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeExpenseStore) ListByUser(_ context.Context, email string) ([]*models.Expense, error) {
	return f.filter(func(e *models.Expense) bool { return e.UserEmail == email }), nil
}

func (f *fakeExpenseStore) OwnerEmail(_ context.Context, id uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.expenses {
		if e.ID == id {
			return e.UserEmail, nil
		}
	}
	return "", repository.ErrNotFound
}

func (f *fakeExpenseStore) Delete(_ context.Context, id uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.expenses {
		if e.ID == id && e.UserEmail == email {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeExpenseStore) filter(keep func(*models.Expense) bool) []*models.Expense {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Expense, 0)
	for _, e := range f.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

type fakeChatStore struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*models.Chat
	seq   int64
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[uuid.UUID]*models.Chat)}
}

func (f *fakeChatStore) Create(_ context.Context, chat *models.Chat, first *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *chat
	f.seq++
	first.Seq = f.seq
	cp.Messages = []models.Message{*first}
	f.chats[chat.ID] = &cp
	return nil
}

func (f *fakeChatStore) Append(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[msg.ChatID]
	if !ok {
		return repository.ErrNotFound
	}
	f.seq++
	msg.Seq = f.seq
	c.Messages = append(c.Messages, *msg)
	c.UpdatedAt = msg.Timestamp
	return nil
}

func (f *fakeChatStore) OwnerEmail(_ context.Context, id uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return c.UserEmail, nil
}

func (f *fakeChatStore) GetByID(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]models.Message(nil), c.Messages...)
	return &cp, nil
}

func (f *fakeChatStore) ListByUser(_ context.Context, email string) ([]*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Chat, 0)
	for _, c := range f.chats {
		if strings.EqualFold(c.UserEmail, email) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeChatStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.chats, id)
	return nil
}

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMsgs []ChatMessage
	lastMdl  string
	models   map[string]bool
}

func (f *fakeCompleter) Complete(_ context.Context, model string, messages []ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMsgs = append([]ChatMessage(nil), messages...)
	f.lastMdl = model
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) ResolveModel(requested string) string {
	if f.models[requested] {
		return requested
	}
	return "default-model"
}

var errBoom = errors.New("boom")
