package burger

import (
	"context"
	"sync"
)

type MockCatalogFetcher struct {
	FetchCatalogFunc func(ctx context.Context) ([]Ingredient, error)
}

func (m *MockCatalogFetcher) FetchCatalog(ctx context.Context) ([]Ingredient, error) {
	if m.FetchCatalogFunc != nil {
		return m.FetchCatalogFunc(ctx)
	}
	return testIngredients(), nil
}

type MockOrderCreator struct {
	mu sync.Mutex

	CreateOrderFunc func(ctx context.Context, ingredientIDs []string, accessToken string) (OrderReceipt, error)

	calls    int
	lastIDs  []string
	lastAuth string
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, ingredientIDs []string, accessToken string) (OrderReceipt, error) {
	m.mu.Lock()
	m.calls++
	m.lastIDs = append([]string(nil), ingredientIDs...)
	m.lastAuth = accessToken
	m.mu.Unlock()

	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, ingredientIDs, accessToken)
	}
	return OrderReceipt{Number: 4242, Name: "Space burger"}, nil
}

func (m *MockOrderCreator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type staticCredentials string

func (s staticCredentials) AccessToken() string {
	return string(s)
}

type publishedEvent struct {
	topic   string
	payload []byte
}

type MockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent

	PublishFunc func(ctx context.Context, topic string, payload []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	m.events = append(m.events, publishedEvent{topic: topic, payload: payload})
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, payload)
	}
	return nil
}

func (m *MockPublisher) Events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

type MockOrderFinder struct {
	GetOrderFunc func(ctx context.Context, number int) ([]RawOrder, error)
}

func (m *MockOrderFinder) GetOrder(ctx context.Context, number int) ([]RawOrder, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, number)
	}
	return nil, nil
}

func testIngredients() []Ingredient {
	return []Ingredient{
		{ID: "bun-1", Name: "Fluorescent bun", Type: "bun", Price: 100, Image: "bun-1.png"},
		{ID: "bun-2", Name: "Crater bun", Type: "bun", Price: 80, Image: "bun-2.png"},
		{ID: "main-1", Name: "Meteorite cutlet", Type: "main", Price: 70, Image: "main-1.png"},
		{ID: "main-2", Name: "Martian steak", Type: "main", Price: 40, Image: "main-2.png"},
		{ID: "sauce-1", Name: "Spicy-X sauce", Type: "sauce", Price: 30, Image: "sauce-1.png"},
	}
}

func testCatalog() *Catalog {
	return NewCatalog(testIngredients())
}

func mustGet(c *Catalog, id string) Ingredient {
	ing, ok := c.Get(id)
	if !ok {
		panic("unknown test ingredient " + id)
	}
	return ing
}

// newLoadedConstructor returns a constructor with the test catalog already
// loaded.
func newLoadedConstructor(orders OrderCreator, creds CredentialSource, pub *MockPublisher) *Constructor {
	deps := ConstructorDeps{
		Catalog:     &MockCatalogFetcher{},
		Orders:      orders,
		Credentials: creds,
	}
	if pub != nil {
		deps.Publisher = pub
	}
	c := NewConstructor(deps, nil)
	if err := c.LoadCatalog(context.Background()); err != nil {
		panic(err)
	}
	return c
}
