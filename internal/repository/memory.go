package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderdesk/internal/model"
)

// MemoryStore is an in-memory backend with the same contracts as the
// PostgreSQL store. It backs the service and handler tests.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID    int64
	nextClientID  int64
	nextProductID int64
	nextOrderID   int64

	users    map[int64]model.User
	clients  map[int64]model.Client
	products map[int64]model.Product
	orders   map[int64]model.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID:    1,
		nextClientID:  1,
		nextProductID: 1,
		nextOrderID:   1,
		users:         make(map[int64]model.User),
		clients:       make(map[int64]model.Client),
		products:      make(map[int64]model.Product),
		orders:        make(map[int64]model.Order),
	}
}

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

// Inside a transaction the store's write lock is already held, so the
// per-call locks become no-ops.
func (m *MemoryStore) rlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RLock()
	}
}

func (m *MemoryStore) runlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *MemoryStore) wlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Lock()
	}
}

func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Unlock()
	}
}

// MemoryTx emulates a transaction boundary with the store write lock.
// There is no rollback: the service layer validates before it mutates.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, p Page) []T {
	off := p.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + p.Size
	if p.Size <= 0 || end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

// MemoryUsers implements UserRepository.
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(ctx context.Context, u *model.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, existing := range r.store.users {
		if existing.Username == u.Username || (u.Email != "" && existing.Email == u.Email) {
			return ErrDuplicate
		}
	}
	u.ID = r.store.nextUserID
	r.store.nextUserID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	u, ok := r.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (r *MemoryUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, u := range r.store.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryClients implements ClientRepository.
type MemoryClients struct{ store *MemoryStore }

func NewMemoryClients(store *MemoryStore) *MemoryClients { return &MemoryClients{store: store} }

var _ ClientRepository = (*MemoryClients)(nil)

func (r *MemoryClients) Create(ctx context.Context, c *model.Client) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, existing := range r.store.clients {
		if existing.Email == c.Email {
			return ErrDuplicate
		}
	}
	c.ID = r.store.nextClientID
	r.store.nextClientID++
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.store.clients[c.ID] = *c
	return nil
}

func (r *MemoryClients) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	c, ok := r.store.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r *MemoryClients) Update(ctx context.Context, c *model.Client) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.clients[c.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.store.clients {
		if id != c.ID && existing.Email == c.Email {
			return ErrDuplicate
		}
	}
	c.UpdatedAt = time.Now().UTC()
	r.store.clients[c.ID] = *c
	return nil
}

func (r *MemoryClients) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.clients[id]; !ok {
		return ErrNotFound
	}
	for _, o := range r.store.orders {
		if o.ClientID == id {
			return ErrReferenced
		}
	}
	delete(r.store.clients, id)
	return nil
}

func (r *MemoryClients) List(ctx context.Context, f ClientFilter, p Page) ([]model.Client, int, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := []model.Client{}
	for _, c := range r.store.clients {
		if containsFold(c.Name, f.Search) || containsFold(c.Email, f.Search) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, p), len(out), nil
}

// MemoryProducts implements ProductRepository.
type MemoryProducts struct{ store *MemoryStore }

func NewMemoryProducts(store *MemoryStore) *MemoryProducts { return &MemoryProducts{store: store} }

var _ ProductRepository = (*MemoryProducts)(nil)

func (r *MemoryProducts) Create(ctx context.Context, p *model.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, existing := range r.store.products {
		if existing.Barcode == p.Barcode {
			return ErrDuplicate
		}
	}
	p.ID = r.store.nextProductID
	r.store.nextProductID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.store.products[p.ID] = *p
	return nil
}

func (r *MemoryProducts) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	return r.get(id)
}

// GetForUpdate relies on the transaction's write lock for exclusivity.
func (r *MemoryProducts) GetForUpdate(ctx context.Context, id int64) (*model.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	return r.get(id)
}

func (r *MemoryProducts) get(id int64) (*model.Product, error) {
	p, ok := r.store.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryProducts) AdjustStock(ctx context.Context, id int64, delta int) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	p, ok := r.store.products[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	r.store.products[id] = p
	return nil
}

func (r *MemoryProducts) Update(ctx context.Context, p *model.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.products[p.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.store.products {
		if id != p.ID && existing.Barcode == p.Barcode {
			return ErrDuplicate
		}
	}
	p.UpdatedAt = time.Now().UTC()
	r.store.products[p.ID] = *p
	return nil
}

func (r *MemoryProducts) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.products[id]; !ok {
		return ErrNotFound
	}
	for _, o := range r.store.orders {
		for _, item := range o.Items {
			if item.ProductID == id {
				return ErrReferenced
			}
		}
	}
	delete(r.store.products, id)
	return nil
}

func (r *MemoryProducts) List(ctx context.Context, f ProductFilter, p Page) ([]model.Product, int, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := []model.Product{}
	for _, prod := range r.store.products {
		if !containsFold(prod.Name, f.Search) && !containsFold(prod.Description, f.Search) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(prod.Category, f.Category) {
			continue
		}
		if f.MinPrice != nil && prod.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && prod.Price > *f.MaxPrice {
			continue
		}
		out = append(out, prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, p), len(out), nil
}

// MemoryOrders implements OrderRepository.
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (r *MemoryOrders) Create(ctx context.Context, o *model.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	o.ID = r.store.nextOrderID
	r.store.nextOrderID++
	o.Reference = uuid.New().String()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.store.orders[o.ID] = *o
	return nil
}

func (r *MemoryOrders) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	o, ok := r.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp, nil
}

// GetForUpdate relies on the transaction's write lock for exclusivity.
func (r *MemoryOrders) GetForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryOrders) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	o, ok := r.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.store.orders[id] = o
	return nil
}

func (r *MemoryOrders) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.orders, id)
	return nil
}

func (r *MemoryOrders) List(ctx context.Context, f OrderFilter, p Page) ([]model.Order, int, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := []model.Order{}
	for _, o := range r.store.orders {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.ClientID != 0 && o.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		cp := o
		cp.Items = append([]model.OrderItem(nil), o.Items...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, p), len(out), nil
}
