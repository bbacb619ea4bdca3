package http

import (
	"context"
	"sort"
	"sync"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/repository"
)

type mockProductService struct {
	m        sync.Mutex
	products map[int64]domain.Product
	nextID   int64
	err      error
	deleted  []int64
}

func newMockProductService(products ...domain.Product) *mockProductService {
	s := &mockProductService{products: map[int64]domain.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *mockProductService) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Product
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *mockProductService) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *mockProductService) CreateProduct(_ context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.m.Lock()
	defer s.m.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = *p
	return nil
}

func (s *mockProductService) UpdateProduct(_ context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	updated := patch.Apply(p)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	s.products[id] = updated
	return &updated, nil
}

func (s *mockProductService) DeleteProduct(_ context.Context, id int64) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.products, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type mockOrderService struct {
	m      sync.Mutex
	placed []domain.CartLine
	userID int64
	order  *domain.Order
	orders []domain.Order
	err    error
}

func (s *mockOrderService) PlaceOrder(_ context.Context, userID int64, lines []domain.CartLine) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.userID = userID
	s.placed = lines
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *mockOrderService) ListOrders(_ context.Context, userID int64) ([]domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.userID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

func (s *mockOrderService) GetOrder(_ context.Context, userID, orderID int64) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, o := range s.orders {
		if o.ID == orderID && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

type mockChatService struct {
	reply string
	err   error
	got   string
}

func (s *mockChatService) Reply(_ context.Context, message string) (string, error) {
	s.got = message
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// mockAuthService maps fixed tokens to callers.
type mockAuthService struct {
	m         sync.Mutex
	sessions  map[string]*auth.Caller
	users     map[int64]*domain.User
	loggedOut []string
	err       error
}

func newMockAuthService() *mockAuthService {
	return &mockAuthService{
		sessions: map[string]*auth.Caller{
			"admin-token": {UserID: 1, Role: domain.RoleAdmin},
			"user-token":  {UserID: 2, Role: domain.RoleCustomer},
		},
		users: map[int64]*domain.User{
			1: {ID: 1, Username: "admin", Role: domain.RoleAdmin},
			2: {ID: 2, Username: "maria", Role: domain.RoleCustomer},
		},
	}
}

func (s *mockAuthService) Authenticate(_ context.Context, token string) (*auth.Caller, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[token], nil
}

func (s *mockAuthService) Register(_ context.Context, username, password string) (*domain.User, error) {
	if len(password) < 6 {
		return nil, domain.NewValidationError("password", "must be at least 6 characters")
	}
	s.m.Lock()
	defer s.m.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, repository.ErrUsernameTaken
		}
	}
	u := &domain.User{ID: int64(len(s.users) + 1), Username: username, Role: domain.RoleCustomer}
	s.users[u.ID] = u
	return u, nil
}

func (s *mockAuthService) Login(_ context.Context, username, password string) (*domain.User, string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if username == "maria" && password == "secret123" {
		return s.users[2], "user-token", nil
	}
	return nil, "", auth.ErrInvalidCredentials
}

func (s *mockAuthService) Logout(_ context.Context, token string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *mockAuthService) Me(_ context.Context, caller *auth.Caller) (*domain.User, error) {
	if err := auth.Authorize(caller, domain.RoleCustomer); err != nil {
		return nil, err
	}
	s.m.Lock()
	defer s.m.Unlock()
	return s.users[caller.UserID], nil
}

func (s *mockAuthService) UpdateProfile(_ context.Context, caller *auth.Caller, update domain.ProfileUpdate) (*domain.User, error) {
	s.m.Lock()
	defer s.m.Unlock()
	u := *s.users[caller.UserID]
	if update.SkinType != nil {
		u.SkinType = update.SkinType
	}
	if update.Address != nil {
		u.Address = update.Address
	}
	s.users[caller.UserID] = &u
	return &u, nil
}
