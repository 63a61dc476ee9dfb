package game

import (
	"github.com/stretchr/testify/mock"
)

// --- WordSource ---

type MockWordSource struct {
	mock.Mock
}

func (m *MockWordSource) Sample(count int) []string {
	args := m.Called(count)
	return args.Get(0).([]string)
}
