package loanwatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory repository.Store. Transactions are serialized
// and roll back on error; the conditional flag writes behave like the
// SQL ones.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	loans         map[int64]models.Loan
	books         map[int64]models.Book
	users         map[int64]models.User
	notifications []models.Notification
	nextID        int64

	listErr     error
	failCreates int // fail every Create once this many have succeeded (0 = never)
	creates     int
	listBarrier *sync.WaitGroup
}

func newMemStore() *memStore {
	return &memStore{
		loans: make(map[int64]models.Loan),
		books: make(map[int64]models.Book),
		users: make(map[int64]models.User),
	}
}

func (m *memStore) addUser(id int64, name string, role models.Role, prefs ...models.Channel) {
	if len(prefs) == 0 {
		prefs = []models.Channel{models.ChannelRealtime}
	}
	m.users[id] = models.User{
		ID:                     id,
		Name:                   name,
		Email:                  name + "@example.com",
		Role:                   role,
		NotificationPreference: models.NewChannelSet(prefs...),
	}
}

func (m *memStore) addBook(id int64, title string) {
	m.books[id] = models.Book{ID: id, Title: title, Status: models.BookBorrowed}
}

func (m *memStore) addLoan(loan models.Loan) {
	m.loans[loan.ID] = loan
}

func (m *memStore) loan(id int64) models.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loans[id]
}

func (m *memStore) book(id int64) models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id]
}

func (m *memStore) allNotifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

func (m *memStore) Loans() repository.LoanRepository                 { return memLoans{m} }
func (m *memStore) Books() repository.BookRepository                 { return memBooks{m} }
func (m *memStore) Users() repository.UserRepository                 { return memUsers{m} }
func (m *memStore) Notifications() repository.NotificationRepository { return memNotifications{m} }

func (m *memStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	loans := make(map[int64]models.Loan, len(m.loans))
	for k, v := range m.loans {
		loans[k] = v
	}
	books := make(map[int64]models.Book, len(m.books))
	for k, v := range m.books {
		books[k] = v
	}
	notifications := len(m.notifications)
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.loans, m.books = loans, books
		m.notifications = m.notifications[:notifications]
		m.nextID = nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

type memLoans struct{ m *memStore }

func (r memLoans) ListScanCandidates(_ context.Context, now time.Time, window time.Duration) ([]models.Loan, error) {
	if r.m.listErr != nil {
		return nil, r.m.listErr
	}
	out := r.candidates(now, window)
	// every racing pass reads before any of them writes
	if r.m.listBarrier != nil {
		r.m.listBarrier.Done()
		r.m.listBarrier.Wait()
	}
	return out, nil
}

func (r memLoans) candidates(now time.Time, window time.Duration) []models.Loan {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Loan
	for _, l := range r.m.loans {
		if l.ReturnedAt != nil {
			continue
		}
		overdue := l.DueAt.Before(now) && !l.OverdueNotified
		reminder := l.DueAt.After(now) && !l.DueAt.After(now.Add(window)) && l.ReminderSentAt == nil
		if !overdue && !reminder {
			continue
		}
		if u, ok := r.m.users[l.UserID]; ok {
			l.User = &u
		}
		if b, ok := r.m.books[l.BookID]; ok {
			l.Book = &b
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out
}

func (r memLoans) ListOverdue(_ context.Context, now time.Time, _ string, _, _ int) ([]models.Loan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Loan
	for _, l := range r.m.loans {
		if l.ReturnedAt == nil && l.DueAt.Before(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memLoans) MarkOverdueNotified(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.loans[id]
	if !ok || l.OverdueNotified || l.ReturnedAt != nil {
		return repository.ErrAlreadyFlagged
	}
	l.OverdueNotified = true
	r.m.loans[id] = l
	return nil
}

func (r memLoans) MarkReminderSent(_ context.Context, id int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.loans[id]
	if !ok || l.ReminderSentAt != nil || l.ReturnedAt != nil {
		return repository.ErrAlreadyFlagged
	}
	l.ReminderSentAt = &at
	r.m.loans[id] = l
	return nil
}

type memBooks struct{ m *memStore }

func (r memBooks) SetStatus(_ context.Context, id int64, status models.BookStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	r.m.books[id] = b
	return nil
}

type memUsers struct{ m *memStore }

func (r memUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.User
	for _, u := range r.m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memNotifications struct{ m *memStore }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreates > 0 && r.m.creates >= r.m.failCreates {
		return errStoreDown
	}
	r.m.creates++
	r.m.nextID++
	n.ID = r.m.nextID
	r.m.notifications = append(r.m.notifications, *n)
	return nil
}

func (r memNotifications) ListByUser(_ context.Context, userID int64, _ *bool, _, _ int) ([]models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Notification
	for _, n := range r.m.notifications {
		if n.UserID != nil && *n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotifications) MarkAsRead(context.Context, int64, int64) error { return nil }
func (r memNotifications) MarkAllAsRead(context.Context, int64) error     { return nil }

// recordingDeliverer captures dispatched notifications.
type recordingDeliverer struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (d *recordingDeliverer) Dispatch(_ context.Context, n *models.Notification) DeliveryReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return DeliveryReport{NotificationID: n.ID, Realtime: OutcomeDelivered}
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}
