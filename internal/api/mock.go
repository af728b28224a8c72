package api

import (
	"context"
	"sync"

	"github.com/Veraticus/finflow/internal/model"
)

// MockClient is a mock implementation of the finance API for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	ListTransactionsFn  func(ctx context.Context) ([]model.Transaction, error)
	CreateTransactionFn func(ctx context.Context, req model.TransactionRequest) (model.Transaction, error)
	UpdateTransactionFn func(ctx context.Context, id model.ID, req model.TransactionRequest) (model.Transaction, error)
	DeleteTransactionFn func(ctx context.Context, id model.ID) error
	ListCategoriesFn    func(ctx context.Context) ([]model.Category, error)
	CreateCategoryFn    func(ctx context.Context, draft model.CategoryDraft) (model.Category, error)
	UpdateCategoryFn    func(ctx context.Context, cat model.Category) (model.Category, error)
	DeleteCategoryFn    func(ctx context.Context, id model.ID) error
	CheckConnectionFn   func(ctx context.Context) bool

	// Call tracking, in call order
	Calls []string

	CreateTransactionCalls []model.TransactionRequest
	UpdateTransactionCalls []UpdateTransactionCall
	DeleteTransactionCalls []model.ID
	CreateCategoryCalls    []model.CategoryDraft
	UpdateCategoryCalls    []model.Category
	DeleteCategoryCalls    []model.ID

	mu sync.Mutex
}

// UpdateTransactionCall records the parameters of an UpdateTransaction call.
type UpdateTransactionCall struct {
	ID      model.ID
	Request model.TransactionRequest
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CallCount returns how many times the named method was called.
func (m *MockClient) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// ListTransactions implements the API.
func (m *MockClient) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	m.record("ListTransactions")
	if m.ListTransactionsFn != nil {
		return m.ListTransactionsFn(ctx)
	}
	return []model.Transaction{}, nil
}

// CreateTransaction implements the API. By default it echoes the request
// back with id "new" and no embedded category name.
func (m *MockClient) CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.Transaction, error) {
	m.record("CreateTransaction")
	m.mu.Lock()
	m.CreateTransactionCalls = append(m.CreateTransactionCalls, req)
	m.mu.Unlock()
	if m.CreateTransactionFn != nil {
		return m.CreateTransactionFn(ctx, req)
	}
	return transactionFromRequest("new", req), nil
}

// UpdateTransaction implements the API. By default it echoes the request.
func (m *MockClient) UpdateTransaction(ctx context.Context, id model.ID, req model.TransactionRequest) (model.Transaction, error) {
	m.record("UpdateTransaction")
	m.mu.Lock()
	m.UpdateTransactionCalls = append(m.UpdateTransactionCalls, UpdateTransactionCall{ID: id, Request: req})
	m.mu.Unlock()
	if m.UpdateTransactionFn != nil {
		return m.UpdateTransactionFn(ctx, id, req)
	}
	return transactionFromRequest(id, req), nil
}

// DeleteTransaction implements the API.
func (m *MockClient) DeleteTransaction(ctx context.Context, id model.ID) error {
	m.record("DeleteTransaction")
	m.mu.Lock()
	m.DeleteTransactionCalls = append(m.DeleteTransactionCalls, id)
	m.mu.Unlock()
	if m.DeleteTransactionFn != nil {
		return m.DeleteTransactionFn(ctx, id)
	}
	return nil
}

// ListCategories implements the API.
func (m *MockClient) ListCategories(ctx context.Context) ([]model.Category, error) {
	m.record("ListCategories")
	if m.ListCategoriesFn != nil {
		return m.ListCategoriesFn(ctx)
	}
	return []model.Category{}, nil
}

// CreateCategory implements the API. By default it assigns id "new".
func (m *MockClient) CreateCategory(ctx context.Context, draft model.CategoryDraft) (model.Category, error) {
	m.record("CreateCategory")
	m.mu.Lock()
	m.CreateCategoryCalls = append(m.CreateCategoryCalls, draft)
	m.mu.Unlock()
	if m.CreateCategoryFn != nil {
		return m.CreateCategoryFn(ctx, draft)
	}
	return model.Category{ID: "new", Name: draft.Name, Type: draft.Type}, nil
}

// UpdateCategory implements the API. By default it echoes the category.
func (m *MockClient) UpdateCategory(ctx context.Context, cat model.Category) (model.Category, error) {
	m.record("UpdateCategory")
	m.mu.Lock()
	m.UpdateCategoryCalls = append(m.UpdateCategoryCalls, cat)
	m.mu.Unlock()
	if m.UpdateCategoryFn != nil {
		return m.UpdateCategoryFn(ctx, cat)
	}
	return cat, nil
}

// DeleteCategory implements the API.
func (m *MockClient) DeleteCategory(ctx context.Context, id model.ID) error {
	m.record("DeleteCategory")
	m.mu.Lock()
	m.DeleteCategoryCalls = append(m.DeleteCategoryCalls, id)
	m.mu.Unlock()
	if m.DeleteCategoryFn != nil {
		return m.DeleteCategoryFn(ctx, id)
	}
	return nil
}

// CheckConnection implements the API. Defaults to reachable.
func (m *MockClient) CheckConnection(ctx context.Context) bool {
	m.record("CheckConnection")
	if m.CheckConnectionFn != nil {
		return m.CheckConnectionFn(ctx)
	}
	return true
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.CreateTransactionCalls = nil
	m.UpdateTransactionCalls = nil
	m.DeleteTransactionCalls = nil
	m.CreateCategoryCalls = nil
	m.UpdateCategoryCalls = nil
	m.DeleteCategoryCalls = nil
}

func transactionFromRequest(id model.ID, req model.TransactionRequest) model.Transaction {
	return model.Transaction{
		ID:          id,
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
		Category:    model.Category{ID: req.CategoryID},
	}
}
