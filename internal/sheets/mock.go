package sheets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/service"
)

var _ service.SheetExchange = (*MockExchange)(nil)

// MockExchange is an in-memory SheetExchange for testing.
type MockExchange struct {
	Sheets     map[string][][]string
	ReadErr    error
	WriteErr   error
	ReadCalls  []string
	WriteCalls []string
	mu         sync.Mutex
}

// NewMockExchange creates a mock holding the given tabs.
func NewMockExchange(sheets map[string][][]string) *MockExchange {
	if sheets == nil {
		sheets = make(map[string][][]string)
	}
	return &MockExchange{Sheets: sheets}
}

// ReadSheet implements service.SheetExchange.
func (m *MockExchange) ReadSheet(_ context.Context, sheetName string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCalls = append(m.ReadCalls, sheetName)
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	rows, ok := m.Sheets[sheetName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrSheetNotFound, sheetName)
	}
	return cloneRows(rows), nil
}

// WriteSheet implements service.SheetExchange.
func (m *MockExchange) WriteSheet(_ context.Context, sheetName string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls = append(m.WriteCalls, sheetName)
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Sheets[sheetName] = cloneRows(rows)
	return nil
}

// Sheet returns a copy of a stored tab.
func (m *MockExchange) Sheet(sheetName string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.Sheets[sheetName])
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}
