package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
	appErrors "github.com/cefib-pe/cefib-admin-api/pkg/errors"
)

const (
	defaultAuditLimit = 100
	defaultStatsDays  = 7
	auditWriteTimeout = 3 * time.Second
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
	CountByAction(ctx context.Context, since time.Time) ([]models.AuditActionCount, error)
}

// auditRecorder is what the other services need to write audit events.
type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// AuditService writes and reads the security audit trail.
type AuditService struct {
	repo    auditRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Record persists entry. Audit failures never fail the caller; they are
// logged and counted.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) {
	details, err := models.EncodeAuditDetails(entry.Details)
	if err != nil {
		s.logger.Warn("failed to encode audit details", zap.String("action", string(entry.Action)), zap.Error(err))
		details = nil
	}
	log := &models.AuditLog{
		Action:    entry.Action,
		UserID:    optionalString(entry.UserID),
		Entity:    entry.Entity,
		EntityID:  optionalString(entry.EntityID),
		Details:   models.JSONB(details),
		IPAddress: entry.Meta.IP,
		UserAgent: entry.Meta.UserAgent,
		Success:   entry.Success,
		CreatedAt: s.now(),
	}
	if !entry.Success && entry.ErrorMessage != "" {
		log.ErrorMessage = optionalString(entry.ErrorMessage)
	}

	// The write outlives a cancelled request so aborted logins are still recorded.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := s.repo.Create(writeCtx, log); err != nil {
		s.metrics.RecordAuditFailure()
		s.logger.Warn("failed to write audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity", entry.Entity),
			zap.String("request_id", entry.Meta.RequestID),
			zap.Error(err),
		)
	}
}

// Recent returns the newest audit records, optionally filtered by action.
func (s *AuditService) Recent(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > defaultAuditLimit {
		filter.Limit = defaultAuditLimit
	}
	logs, err := s.repo.ListRecent(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo cargar la auditoría")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// Stats aggregates audit activity over the trailing days.
func (s *AuditService) Stats(ctx context.Context, days int) (*models.AuditStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	since := s.now().AddDate(0, 0, -days)
	counts, err := s.repo.CountByAction(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo calcular la auditoría")
	}
	stats := &models.AuditStats{Days: days, Since: since, ByAction: []models.AuditActionCount{}}
	for _, c := range counts {
		stats.Total += c.Total
		stats.Failed += c.Failed
		stats.ByAction = append(stats.ByAction, c)
	}
	stats.Successful = stats.Total - stats.Failed
	sort.SliceStable(stats.ByAction, func(i, j int) bool {
		if stats.ByAction[i].Total == stats.ByAction[j].Total {
			return stats.ByAction[i].Action < stats.ByAction[j].Action
		}
		return stats.ByAction[i].Total > stats.ByAction[j].Total
	})
	return stats, nil
}

// mutationEntry builds the audit entry for a back office create, update or
// delete. err decides the success flag.
func mutationEntry(actor models.Actor, action models.AuditAction, entity, entityID string, details models.AuditDetails, err error) models.AuditEntry {
	entry := models.AuditEntry{
		Action:   action,
		UserID:   actor.UserID,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
		Meta:     actor.Meta,
		Success:  err == nil,
	}
	if err != nil {
		entry.ErrorMessage = appErrors.FromError(err).Message
	}
	return entry
}

// changedFields lists the JSON fields whose values differ between before and
// after. Timestamps maintained by the database are ignored.
func changedFields(before, after interface{}) []string {
	a, errA := toFieldMap(before)
	b, errB := toFieldMap(after)
	if errA != nil || errB != nil {
		return nil
	}
	var fields []string
	for key, value := range b {
		if key == "updatedAt" || key == "createdAt" {
			continue
		}
		prev, ok := a[key]
		if !ok || string(prev) != string(value) {
			fields = append(fields, key)
		}
	}
	for key := range a {
		if _, ok := b[key]; !ok {
			fields = append(fields, key)
		}
	}
	sort.Strings(fields)
	return fields
}

func toFieldMap(v interface{}) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, models.AuditEntry) {}
