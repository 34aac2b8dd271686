package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clinicapi/internal/config"
	"clinicapi/internal/model"
	repoMocks "clinicapi/internal/repository/mocks"
	"clinicapi/internal/result"
	"clinicapi/internal/storage"
	storeMocks "clinicapi/internal/storage/mocks"
)

var (
	windowStart = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	archiveKey  = "audit/2026/10/14/20261014T000000Z_20261015T000000Z.jsonl"
	archiveCfg  = config.ArchiveConfig{Prefix: "audit", PresignExpiry: 15 * time.Minute}
)

func auditEntries(n int) []model.AuditLog {
	out := make([]model.AuditLog, n)
	for i := range out {
		at := windowStart.Add(time.Duration(i) * time.Minute)
		out[i] = model.AuditLog{
			Entity:     model.Entity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at, Version: 1},
			ActionType: model.AuditUpdate,
			TableName:  "patients",
		}
	}
	return out
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, archiveKey, ArchiveKey("audit", windowStart, windowEnd))

	local := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t,
		"exports/2026/10/13/20261013T230000Z_20261014T010000Z.jsonl",
		ArchiveKey("exports", time.Date(2026, 10, 14, 1, 0, 0, 0, local), time.Date(2026, 10, 14, 3, 0, 0, 0, local)))
}

func TestAuditArchiveService_Archive(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		from, to   time.Time
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, res *ArchiveResult)
	}{
		{
			name: "happy path",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, windowStart, windowEnd).Return(result.Ok(auditEntries(3)))
				mStore.On("Put", ctx, archiveKey, mock.MatchedBy(func(r io.Reader) bool {
					b, ok := r.(*bytes.Buffer)
					return ok && strings.Count(b.String(), "\n") == 3 &&
						strings.Contains(b.String(), `"table_name":"patients"`)
				}), mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/x-ndjson" && opt.Size > 0 && opt.Metadata["entries"] == "3"
				})).Return(storage.ObjectInfo{Key: archiveKey}, nil)
				mRepo.On("Add", ctx, mock.MatchedBy(func(e *model.AuditLog) bool {
					return e.ActionType == model.AuditRead && e.UserID == nil && e.NewValues != nil &&
						strings.Contains(*e.NewValues, archiveKey)
				})).Return(result.Ok(&model.AuditLog{}))
				mStore.On("PresignGet", ctx, archiveKey, 15*time.Minute).Return("https://minio.local/signed", nil)
			},
			check: func(t *testing.T, res *ArchiveResult) {
				assert.Equal(t, archiveKey, res.Key)
				assert.Equal(t, 3, res.Entries)
				assert.Positive(t, res.Size)
				assert.Equal(t, "https://minio.local/signed", res.URL)
			},
		},
		{
			name: "empty window uploads nothing",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, windowStart, windowEnd).Return(result.Ok([]model.AuditLog{}))
			},
			check: func(t *testing.T, res *ArchiveResult) {
				assert.Zero(t, res.Entries)
				assert.Empty(t, res.Key)
			},
		},
		{
			name:       "validation error - inverted window",
			from:       windowEnd,
			to:         windowStart,
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockAuditLogRepository) {},
			wantErr:    ErrInvalidWindow,
		},
		{
			name: "repository error",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, mock.Anything, mock.Anything).
					Return(result.Fail[[]model.AuditLog](result.FailureError("General.DatabaseError", "db fail")))
			},
			wantErrMsg: "list audit entries: General.DatabaseError",
		},
		{
			name: "storage error",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, mock.Anything, mock.Anything).Return(result.Ok(auditEntries(1)))
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "record error with successful rollback",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, mock.Anything, mock.Anything).Return(result.Ok(auditEntries(2)))
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Add", ctx, mock.Anything).
					Return(result.Fail[*model.AuditLog](result.FailureError("General.DatabaseError", "db fail")))
				mStore.On("Delete", ctx, archiveKey).Return(nil)
			},
			wantErrMsg: "record archive failed: General.DatabaseError",
		},
		{
			name: "record error with failed rollback",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, mock.Anything, mock.Anything).Return(result.Ok(auditEntries(2)))
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: archiveKey}, nil)
				mRepo.On("Add", ctx, mock.Anything).
					Return(result.Fail[*model.AuditLog](result.FailureError("General.DatabaseError", "db fail")))
				mStore.On("Delete", ctx, archiveKey).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name: "presign error",
			from: windowStart,
			to:   windowEnd,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockAuditLogRepository) {
				mRepo.On("ListBetween", ctx, mock.Anything, mock.Anything).Return(result.Ok(auditEntries(1)))
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: archiveKey}, nil)
				mRepo.On("Add", ctx, mock.Anything).Return(result.Ok(&model.AuditLog{}))
				mStore.On("PresignGet", ctx, archiveKey, mock.Anything).Return("", errors.New("sign fail"))
			},
			wantErrMsg: "presign archive: sign fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockAuditLogRepository)
			svc := NewAuditArchiveService(mStore, mRepo, archiveCfg, zerolog.Nop())

			tt.setupMocks(mStore, mRepo)

			res, err := svc.Archive(ctx, tt.from, tt.to)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, res)
			default:
				require.NoError(t, err)
				require.NotNil(t, res)
				if tt.check != nil {
					tt.check(t, res)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}
