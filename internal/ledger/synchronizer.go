// Package ledger keeps the local copy of transactions and categories in
// step with the remote finance API.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/validation"
)

// API is the subset of the remote client the synchronizer needs.
type API interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, id model.ID, req model.TransactionRequest) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id model.ID) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, draft model.CategoryDraft) (model.Category, error)
	UpdateCategory(ctx context.Context, cat model.Category) (model.Category, error)
	DeleteCategory(ctx context.Context, id model.ID) error
	CheckConnection(ctx context.Context) bool
}

// Synchronizer owns the in-memory state and applies server results to it.
// State changes only after the corresponding API call has returned.
type Synchronizer struct {
	api          API
	logger       *slog.Logger
	validator    *validation.Validator
	connectivity model.Connectivity
	lastError    string
	transactions []model.Transaction
	categories   []model.Category
	mu           sync.RWMutex
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValidator replaces the draft validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Synchronizer) {
		if v != nil {
			s.validator = v
		}
	}
}

// New creates a synchronizer with empty collections and checking connectivity.
func New(api API, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:          api,
		logger:       slog.Default(),
		validator:    validation.New(),
		connectivity: model.Checking,
		transactions: []model.Transaction{},
		categories:   []model.Category{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh reloads categories and then transactions. Both collections are
// replaced only when both fetches succeed; otherwise the state goes offline
// with a displayable error and the collections are left as they were.
func (s *Synchronizer) Refresh(ctx context.Context) model.Connectivity {
	s.mu.Lock()
	s.connectivity = model.Checking
	s.lastError = ""
	s.mu.Unlock()

	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return s.fail(err, "Failed to load categories")
	}

	transactions, err := s.api.ListTransactions(ctx)
	if err != nil {
		return s.fail(err, "Failed to load transactions")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = nonNil(categories)
	s.transactions = nonNil(transactions)
	s.connectivity = model.Online

	common.LogDebug(s.logger, "Refreshed state", common.Fields{
		"categories":   len(s.categories),
		"transactions": len(s.transactions),
	})

	return s.connectivity
}

func (s *Synchronizer) fail(err error, msg string) model.Connectivity {
	common.LogError(s.logger, err, msg, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivity = model.Offline
	s.lastError = common.Describe(err)
	return s.connectivity
}

// AddTransaction validates the draft, creates it on the server and appends
// the result.
func (s *Synchronizer) AddTransaction(ctx context.Context, draft model.TransactionDraft) (model.Transaction, error) {
	if err := s.validator.Struct(draft); err != nil {
		return model.Transaction{}, err
	}

	created, err := s.api.CreateTransaction(ctx, draft.Request())
	if err != nil {
		common.LogError(s.logger, err, "Failed to create transaction", nil)
		return model.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created = s.withCategory(created, draft.Category)
	s.transactions = append(s.transactions, created)
	s.connectivity = model.Online

	return created, nil
}

// UpdateTransaction sends the new field values and replaces the entry with
// the returned id. A returned id that is not held locally changes nothing.
func (s *Synchronizer) UpdateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	draft := txn.Draft()
	if err := s.validator.Struct(draft); err != nil {
		return model.Transaction{}, err
	}

	updated, err := s.api.UpdateTransaction(ctx, txn.ID, draft.Request())
	if err != nil {
		common.LogError(s.logger, err, "Failed to update transaction", common.Fields{"id": txn.ID})
		return model.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated = s.withCategory(updated, txn.Category)
	for i := range s.transactions {
		if s.transactions[i].ID == updated.ID {
			s.transactions[i] = updated
			break
		}
	}
	s.connectivity = model.Online

	return updated, nil
}

// DeleteTransaction deletes on the server and then drops the local entry.
func (s *Synchronizer) DeleteTransaction(ctx context.Context, id model.ID) error {
	if err := s.api.DeleteTransaction(ctx, id); err != nil {
		common.LogError(s.logger, err, "Failed to delete transaction", common.Fields{"id": id})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = slices.DeleteFunc(s.transactions, func(t model.Transaction) bool {
		return t.ID == id
	})
	s.connectivity = model.Online

	return nil
}

// AddCategory validates the draft, creates it and appends the result.
func (s *Synchronizer) AddCategory(ctx context.Context, draft model.CategoryDraft) (model.Category, error) {
	if err := s.validator.Struct(draft); err != nil {
		return model.Category{}, err
	}

	created, err := s.api.CreateCategory(ctx, draft)
	if err != nil {
		common.LogError(s.logger, err, "Failed to create category", common.Fields{"name": draft.Name})
		return model.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, created)
	s.connectivity = model.Online

	return created, nil
}

// UpdateCategory replaces the category and refreshes the embedded copy in
// every transaction that references it.
func (s *Synchronizer) UpdateCategory(ctx context.Context, cat model.Category) (model.Category, error) {
	if err := s.validator.Struct(cat.Draft()); err != nil {
		return model.Category{}, err
	}

	updated, err := s.api.UpdateCategory(ctx, cat)
	if err != nil {
		common.LogError(s.logger, err, "Failed to update category", common.Fields{"id": cat.ID})
		return model.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == updated.ID {
			s.categories[i] = updated
			break
		}
	}
	for i := range s.transactions {
		if s.transactions[i].Category.ID == updated.ID {
			s.transactions[i].Category = updated
		}
	}
	s.connectivity = model.Online

	return updated, nil
}

// DeleteCategory deletes a category no local transaction references.
// A referenced category is rejected without contacting the server.
func (s *Synchronizer) DeleteCategory(ctx context.Context, id model.ID) error {
	if s.categoryInUse(id) {
		return common.NewPreconditionError(common.ErrCategoryInUse,
			"this category is used by existing transactions and cannot be deleted")
	}

	if err := s.api.DeleteCategory(ctx, id); err != nil {
		common.LogError(s.logger, err, "Failed to delete category", common.Fields{"id": id})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = slices.DeleteFunc(s.categories, func(c model.Category) bool {
		return c.ID == id
	})
	s.connectivity = model.Online

	return nil
}

func (s *Synchronizer) categoryInUse(id model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.transactions, func(t model.Transaction) bool {
		return t.Category.ID == id
	})
}

// Ping checks reachability without touching state.
func (s *Synchronizer) Ping(ctx context.Context) bool {
	return s.api.CheckConnection(ctx)
}

// Transactions returns a copy of the transaction collection.
func (s *Synchronizer) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// Categories returns a copy of the category collection.
func (s *Synchronizer) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Category looks up a category by id.
func (s *Synchronizer) Category(id model.ID) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// Connectivity returns the current connection status.
func (s *Synchronizer) Connectivity() model.Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

// LastError returns the message from the last failed refresh, or "".
func (s *Synchronizer) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// withCategory fills in the embedded category when the server left it
// out. Callers hold the write lock.
func (s *Synchronizer) withCategory(txn model.Transaction, fallback model.Category) model.Transaction {
	if txn.Category.ID != "" && txn.Category.Name != "" {
		return txn
	}
	id := txn.Category.ID
	if id == "" {
		id = fallback.ID
	}
	for _, c := range s.categories {
		if c.ID == id {
			txn.Category = c
			return txn
		}
	}
	if fallback.ID == id {
		txn.Category = fallback
	}
	return txn
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
