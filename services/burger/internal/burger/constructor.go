package burger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/appetiteclub/burger/pkg/event"
)

// CatalogFetcher loads the ingredient catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) ([]Ingredient, error)
}

// OrderCreator places an order for the given ingredient ids.
type OrderCreator interface {
	CreateOrder(ctx context.Context, ingredientIDs []string, accessToken string) (OrderReceipt, error)
}

// CredentialSource exposes the current access token, empty when signed out.
type CredentialSource interface {
	AccessToken() string
}

// OrderReceipt is what the order collaborator answers on success.
type OrderReceipt struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type ConstructorDeps struct {
	Catalog     CatalogFetcher
	Orders      OrderCreator
	Credentials CredentialSource
	Publisher   events.Publisher
}

// CatalogState is the loading status of the catalog fetch.
type CatalogState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Count   int    `json:"count"`
}

// ConstructorView is the read model of the constructor panel.
type ConstructorView struct {
	Bun        *Ingredient    `json:"bun"`
	Fillings   []Filling      `json:"fillings"`
	TotalPrice int            `json:"total_price"`
	Counts     map[string]int `json:"counts"`
}

// Constructor is the state container for the ordering flow: the catalog, the
// selection and the submission slice. Every exported method runs as one
// atomic step; the lock is released while waiting on collaborators.
type Constructor struct {
	mu           sync.Mutex
	catalog      *Catalog
	catalogState CatalogState
	selection    *Selection
	submission   Submission

	catalogSource CatalogFetcher
	orders        OrderCreator
	credentials   CredentialSource
	publisher     events.Publisher
	logger        aqm.Logger
}

func NewConstructor(deps ConstructorDeps, logger aqm.Logger) *Constructor {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Constructor{
		catalog:       NewCatalog(nil),
		selection:     NewSelection(),
		submission:    NewSubmission(),
		catalogSource: deps.Catalog,
		orders:        deps.Orders,
		credentials:   deps.Credentials,
		publisher:     deps.Publisher,
		logger:        logger,
	}
}

// Start fetches the catalog in the background so startup does not wait on
// the ingredients endpoint.
func (c *Constructor) Start(ctx context.Context) error {
	go func() {
		if err := c.LoadCatalog(ctx); err != nil {
			c.logger.Error("initial catalog load failed", "error", err)
		}
	}()
	return nil
}

func (c *Constructor) Stop(ctx context.Context) error {
	return nil
}

// LoadCatalog replaces the catalog with a fresh fetch. The selection is kept;
// uids that stop resolving simply drop out of the derived build.
func (c *Constructor) LoadCatalog(ctx context.Context) error {
	if c.catalogSource == nil {
		return ErrCatalogNotLoaded
	}

	c.mu.Lock()
	c.catalogState.Loading = true
	c.catalogState.Error = ""
	c.mu.Unlock()

	items, err := c.catalogSource.FetchCatalog(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.catalogState.Loading = false
	if err != nil {
		c.catalogState.Error = err.Error()
		return err
	}

	c.catalog = NewCatalog(items)
	c.catalogState.Count = c.catalog.Len()
	c.logger.Info("catalog loaded", "ingredients", c.catalog.Len())
	return nil
}

func (c *Constructor) Catalog() *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

func (c *Constructor) CatalogState() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalogState
}

// AddIngredient selects the catalog ingredient with the given id.
func (c *Constructor) AddIngredient(ingredientID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ing, ok := c.catalog.Get(ingredientID)
	if !ok {
		return "", ErrUnknownIngredient
	}
	return c.selection.Add(ing), nil
}

func (c *Constructor) RemoveIngredient(ingredientID, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Remove(ingredientID, uid)
}

func (c *Constructor) ReorderIngredients(fromIndex, toIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Reorder(fromIndex, toIndex)
}

func (c *Constructor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Reset()
}

func (c *Constructor) Build() Build {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DeriveBuild(c.catalog, c.selection)
}

func (c *Constructor) View() ConstructorView {
	c.mu.Lock()
	defer c.mu.Unlock()

	build := DeriveBuild(c.catalog, c.selection)
	return ConstructorView{
		Bun:        build.Bun,
		Fillings:   build.Fillings,
		TotalPrice: build.TotalPrice(),
		Counts:     c.selection.Counts(),
	}
}

func (c *Constructor) Submission() Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submission
}

// SubmitOrder validates the build and places the order. Validation failures
// never reach the order collaborator. A call made while another submission
// is loading is refused with ErrSubmitInProgress, and one made before a
// placed order was dismissed with ErrOrderNotDismissed. Both leave state
// untouched.
func (c *Constructor) SubmitOrder(ctx context.Context) (Submission, error) {
	c.mu.Lock()
	switch c.submission.Status {
	case SubmissionLoading:
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrSubmitInProgress
	case SubmissionSucceeded:
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrOrderNotDismissed
	}

	token := ""
	if c.credentials != nil {
		token = c.credentials.AccessToken()
	}

	build := DeriveBuild(c.catalog, c.selection)
	if err := validateForOrder(token, build); err != nil {
		c.submission = c.submission.Fail(err.Error())
		sub := c.submission
		c.mu.Unlock()
		return sub, err
	}

	if c.orders == nil {
		sub := c.submission
		c.mu.Unlock()
		return sub, ErrOrderCreatorMissing
	}

	ids := OrderIngredients(build.Bun.ID, build.FillingIDs())
	total := build.TotalPrice()
	c.submission = c.submission.Begin()
	c.mu.Unlock()

	receipt, err := c.orders.CreateOrder(ctx, ids, token)

	c.mu.Lock()
	if err != nil {
		c.submission = c.submission.Fail(err.Error())
		sub := c.submission
		c.mu.Unlock()
		c.logger.Error("order submission failed", "error", err)
		return sub, err
	}
	c.submission = c.submission.Succeed(receipt)
	sub := c.submission
	c.mu.Unlock()

	c.logger.Info("order submitted", "number", receipt.Number, "ingredients", len(ids))
	c.publishOrderSubmitted(ctx, receipt, ids, total)

	return sub, nil
}

// CloseOrderModal dismisses the result modal. After a successful order the
// constructor starts over with an empty selection.
func (c *Constructor) CloseOrderModal() Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submission.Status == SubmissionSucceeded {
		c.selection.Reset()
	}
	c.submission = c.submission.CloseModal()
	return c.submission
}

func (c *Constructor) ClearOrderError() Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submission = c.submission.ClearError()
	return c.submission
}

func (c *Constructor) publishOrderSubmitted(ctx context.Context, receipt OrderReceipt, ids []string, total int) {
	if c.publisher == nil {
		return
	}

	evt := event.OrderSubmittedEvent{
		EventType:   event.EventOrderSubmitted,
		OccurredAt:  time.Now().UTC(),
		OrderNumber: receipt.Number,
		OrderName:   receipt.Name,
		Ingredients: ids,
		TotalPrice:  total,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		c.logger.Error("cannot marshal order submitted event", "error", err, "number", receipt.Number)
		return
	}

	if err := c.publisher.Publish(ctx, event.OrdersSubmittedTopic, payload); err != nil {
		c.logger.Error("cannot publish order submitted event", "error", err, "number", receipt.Number)
	}
}
