package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"clinicapi/internal/config"
	"clinicapi/internal/model"
	"clinicapi/internal/repository"
	"clinicapi/internal/storage"
)

const (
	archiveContentType = "application/x-ndjson"
	archiveStampLayout = "20060102T150405Z"
)

var ErrInvalidWindow = errors.New("archive window end must be after its start")

// ArchiveResult describes an uploaded audit archive. Key and URL are empty
// when the window held no entries.
type ArchiveResult struct {
	Key     string `json:"key,omitempty"`
	Entries int    `json:"entries"`
	Size    int64  `json:"size"`
	URL     string `json:"url,omitempty"`
}

// AuditArchiveService exports the audit trail to object storage.
type AuditArchiveService interface {
	// Archive uploads the entries created in [from, to) as JSON lines, records
	// the export in the audit trail and returns a presigned download URL.
	// The object is removed again when the export cannot be recorded.
	Archive(ctx context.Context, from, to time.Time) (*ArchiveResult, error)
}

type auditArchiveService struct {
	store  storage.Storage
	audit  repository.AuditLogRepository
	cfg    config.ArchiveConfig
	logger zerolog.Logger
}

func NewAuditArchiveService(store storage.Storage, audit repository.AuditLogRepository, cfg config.ArchiveConfig, logger zerolog.Logger) AuditArchiveService {
	return &auditArchiveService{
		store:  store,
		audit:  audit,
		cfg:    cfg,
		logger: logger.With().Str("component", "audit_archive").Logger(),
	}
}

func (s *auditArchiveService) Archive(ctx context.Context, from, to time.Time) (*ArchiveResult, error) {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}

	entries, err := s.audit.ListBetween(ctx, from, to).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Info().Time("from", from).Time("to", to).Msg("no audit entries to archive")
		return &ArchiveResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return nil, fmt.Errorf("encode audit entry %s: %w", entries[i].ID, err)
		}
	}

	key := ArchiveKey(s.cfg.Prefix, from, to)
	size := int64(buf.Len())
	info, err := s.store.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        size,
		ContentType: archiveContentType,
		Metadata: map[string]string{
			"entries": strconv.Itoa(len(entries)),
			"from":    from.Format(time.RFC3339),
			"to":      to.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	if err := s.record(ctx, info.Key, len(entries)); err != nil {
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			return nil, fmt.Errorf("record archive failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("record archive failed: %w", err)
	}

	url, err := s.store.PresignGet(ctx, info.Key, s.cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign archive: %w", err)
	}

	s.logger.Info().
		Str("key", info.Key).
		Int("entries", len(entries)).
		Int64("size", size).
		Msg("audit entries archived")
	return &ArchiveResult{Key: info.Key, Entries: len(entries), Size: size, URL: url}, nil
}

// record appends a system entry noting the export.
func (s *auditArchiveService) record(ctx context.Context, key string, entries int) error {
	values, err := json.Marshal(map[string]any{"key": key, "entries": entries})
	if err != nil {
		return err
	}
	nv := string(values)
	_, err = s.audit.Add(ctx, &model.AuditLog{
		ActionType: model.AuditRead,
		TableName:  "audit_logs",
		NewValues:  &nv,
	}).Unwrap()
	return err
}

// ArchiveKey returns prefix/YYYY/MM/DD/<from>_<to>.jsonl, dated by from.
func ArchiveKey(prefix string, from, to time.Time) string {
	from, to = from.UTC(), to.UTC()
	name := from.Format(archiveStampLayout) + "_" + to.Format(archiveStampLayout) + ".jsonl"
	return path.Join(prefix, from.Format("2006/01/02"), name)
}
