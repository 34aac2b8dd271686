package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/result"
)

type MockAuditLogRepository struct {
	mock.Mock
}

var _ repository.AuditLogRepository = (*MockAuditLogRepository)(nil)

func (m *MockAuditLogRepository) GetAll(ctx context.Context) result.Result[[]model.AuditLog] {
	args := m.Called(ctx)
	return args.Get(0).(result.Result[[]model.AuditLog])
}

func (m *MockAuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) result.Result[*model.AuditLog] {
	args := m.Called(ctx, id)
	return args.Get(0).(result.Result[*model.AuditLog])
}

func (m *MockAuditLogRepository) Add(ctx context.Context, entry *model.AuditLog) result.Result[*model.AuditLog] {
	args := m.Called(ctx, entry)
	if f, ok := args.Get(0).(func(context.Context, *model.AuditLog) result.Result[*model.AuditLog]); ok {
		return f(ctx, entry)
	}
	return args.Get(0).(result.Result[*model.AuditLog])
}

func (m *MockAuditLogRepository) Update(ctx context.Context, entry *model.AuditLog) result.Result[*model.AuditLog] {
	args := m.Called(ctx, entry)
	return args.Get(0).(result.Result[*model.AuditLog])
}

func (m *MockAuditLogRepository) Delete(ctx context.Context, id uuid.UUID) result.Result[result.Deleted] {
	args := m.Called(ctx, id)
	return args.Get(0).(result.Result[result.Deleted])
}

func (m *MockAuditLogRepository) GetPaged(ctx context.Context, pageIndex, pageSize int) result.Result[repository.PageResult[model.AuditLog]] {
	args := m.Called(ctx, pageIndex, pageSize)
	return args.Get(0).(result.Result[repository.PageResult[model.AuditLog]])
}

func (m *MockAuditLogRepository) ListForRecord(ctx context.Context, tableName string, recordID uuid.UUID) result.Result[[]model.AuditLog] {
	args := m.Called(ctx, tableName, recordID)
	return args.Get(0).(result.Result[[]model.AuditLog])
}

func (m *MockAuditLogRepository) ListBetween(ctx context.Context, from, to time.Time) result.Result[[]model.AuditLog] {
	args := m.Called(ctx, from, to)
	return args.Get(0).(result.Result[[]model.AuditLog])
}
