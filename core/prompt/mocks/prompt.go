package mocks

import (
	"context"

	"rom-manager/core/prompt"

	"github.com/stretchr/testify/mock"
)

// Decider is a mock implementation of prompt.Decider
type Decider struct {
	mock.Mock
}

func (m *Decider) Choose(ctx context.Context, entry string, candidates []prompt.Candidate) (int, bool, error) {
	args := m.Called(ctx, entry, candidates)
	return args.Int(0), args.Bool(1), args.Error(2)
}

// Confirmer is a mock implementation of prompt.Confirmer
type Confirmer struct {
	mock.Mock
}

func (m *Confirmer) Confirm(ctx context.Context, message string) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}
