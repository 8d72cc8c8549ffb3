package services

import (
	"github.com/stretchr/testify/mock"

	"projectpulse/pkg/contracts/domain"
)

// MockNotifier is a testify mock of Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RefreshCompleted(info domain.RefreshInfo, kpis domain.DashboardKPIs) {
	m.Called(info, kpis)
}

func (m *MockNotifier) RefreshFailed(err error) {
	m.Called(err)
}
