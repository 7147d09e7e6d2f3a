package report

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/core/events"
)

// Transition is an atomic conditional status change. The repository applies
// it as "set status where status is still one of From"; the loser of a
// concurrent race sees zero affected rows. The audit entry, when present,
// commits in the same transactional unit or not at all.
type Transition struct {
	ReportID int64
	From     []Status
	To       Status
	At       time.Time
	Audit    *audit.Entry
}

// Repository defines the persistence surface for reports and comments.
type Repository interface {
	Create(ctx context.Context, rep *Report, entry *audit.Entry) error
	GetByID(ctx context.Context, id int64) (*Report, error)
	ListByStaff(ctx context.Context, staffID int64, limit, offset int) ([]*Report, error)
	ListByDepartment(ctx context.Context, departmentID int64, limit, offset int) ([]*Report, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Report, error)
	Transition(ctx context.Context, t Transition) (*Report, error)
	CreateComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, reportID int64) ([]*Comment, error)
}

// FileStore persists uploaded report content behind opaque handles.
type FileStore interface {
	Save(content io.Reader, declaredType string) (handle string, size int64, err error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

type Service struct {
	repo    Repository
	files   FileStore
	bus     Publisher
	audit   audit.Recorder
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo Repository, files FileStore, bus Publisher, recorder audit.Recorder, queryTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		files:   files,
		bus:     bus,
		audit:   recorder,
		timeout: queryTimeout,
		logger:  logger,
	}
}

// Submit stores the uploaded file and creates the report row in SUBMITTED
// state. The file is durable before the row commits; a crash in between
// orphans a file, never a row pointing at nothing.
func (s *Service) Submit(ctx context.Context, actor *authz.Actor, dto SubmitReportDTO) (*Report, error) {
	if decision := authz.Authorize(*actor, authz.ActionReportCreate, authz.Resource{OwnerID: actor.ID}); !decision.Allowed {
		s.logger.Warn("submit denied", "actor_id", actor.ID, "reason", decision.Reason)
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	handle, size, err := s.files.Save(dto.Content, dto.ContentType)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		StaffID:      actor.ID,
		DepartmentID: actor.DepartmentID, // department snapshot at submission time
		WeekEnding:   dto.WeekEnding,
		FileName:     dto.FileName,
		FilePath:     handle,
		FileSize:     size,
		Status:       StatusSubmitted,
		CreatedAt:    time.Now(),
	}

	entry := audit.NewEntry(audit.ActionReportSubmit, actor.ID, "report submitted", map[string]any{
		"week_ending": dto.WeekEnding.Format("2006-01-02"),
		"file_name":   dto.FileName,
		"file_size":   size,
	})

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(cctx, rep, entry); err != nil {
		return nil, err
	}

	s.logger.Info("report submitted",
		"report_id", rep.ID,
		"staff_id", actor.ID,
		"week_ending", dto.WeekEnding.Format("2006-01-02"),
		"file_size", size)

	s.bus.Publish(ctx, events.NewReportEvent(events.TypeReportSubmitted,
		rep.ID, rep.StaffID, rep.DepartmentID, rep.WeekEnding, actor.ID))

	return rep, nil
}

// Get returns a report the actor may read. A reviewer opening a SUBMITTED
// report moves it to UNDER_REVIEW; losing that race to a concurrent decision
// is fine, the read still succeeds with the fresher state.
func (s *Service) Get(ctx context.Context, actor *authz.Actor, id int64) (*Report, error) {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rep, err := s.repo.GetByID(cctx, id)
	if err != nil {
		return nil, err
	}

	if decision := authz.Authorize(*actor, authz.ActionReportRead, resourceOf(rep)); !decision.Allowed {
		s.logger.Warn("read denied", "actor_id", actor.ID, "report_id", id, "reason", decision.Reason)
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	if rep.Status == StatusSubmitted && s.canReview(actor, rep) {
		reviewed, err := s.repo.Transition(cctx, Transition{
			ReportID: rep.ID,
			From:     []Status{StatusSubmitted},
			To:       StatusUnderReview,
			At:       time.Now(),
			Audit:    audit.NewEntry(audit.ActionReportReview, actor.ID, "report opened for review", map[string]any{"report_id": rep.ID}),
		})
		if err == nil {
			rep = reviewed
		} else if current, ferr := s.repo.GetByID(cctx, id); ferr == nil {
			// lost a race against a concurrent decision
			rep = current
		}
	}

	s.audit.RecordAsync(ctx, audit.ActionReportView, actor.ID, "report viewed", map[string]any{"report_id": rep.ID})

	return rep, nil
}

// ListForActor returns reports scoped by role: staff see their own, heads
// see their department, admins and HR see everything.
func (s *Service) ListForActor(ctx context.Context, actor *authz.Actor, limit, offset int) ([]*Report, error) {
	if decision := authz.Authorize(*actor, authz.ActionReportList, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch actor.Role {
	case authz.RoleStaff:
		return s.repo.ListByStaff(cctx, actor.ID, limit, offset)
	case authz.RoleHOD:
		if actor.HeadedDepartmentID == nil {
			return []*Report{}, nil
		}
		return s.repo.ListByDepartment(cctx, *actor.HeadedDepartmentID, limit, offset)
	default:
		return s.repo.ListAll(cctx, limit, offset)
	}
}

// Approve finalizes a report. Exactly one of two concurrent decisions wins;
// the loser gets AlreadyFinalized.
func (s *Service) Approve(ctx context.Context, actor *authz.Actor, id int64) (*Report, error) {
	return s.decide(ctx, actor, id, authz.ActionReportApprove, StatusApproved, audit.ActionReportApprove)
}

// Reject is symmetric to Approve.
func (s *Service) Reject(ctx context.Context, actor *authz.Actor, id int64) (*Report, error) {
	return s.decide(ctx, actor, id, authz.ActionReportReject, StatusRejected, audit.ActionReportReject)
}

func (s *Service) decide(ctx context.Context, actor *authz.Actor, id int64, action authz.Action, to Status, auditAction string) (*Report, error) {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rep, err := s.repo.GetByID(cctx, id)
	if err != nil {
		return nil, err
	}

	if decision := authz.Authorize(*actor, action, resourceOf(rep)); !decision.Allowed {
		// the denial never reaches the report's audit trail
		s.logger.Warn("decision denied",
			"actor_id", actor.ID,
			"report_id", id,
			"action", action,
			"reason", decision.Reason)
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	now := time.Now()
	entry := audit.NewEntry(auditAction, actor.ID, string(to)+" report", map[string]any{
		"report_id": rep.ID,
		"staff_id":  rep.StaffID,
	})

	updated, err := s.repo.Transition(cctx, Transition{
		ReportID: rep.ID,
		From:     DecisionPredecessors(),
		To:       to,
		At:       now,
		Audit:    entry,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report finalized",
		"report_id", updated.ID,
		"status", updated.Status,
		"actor_id", actor.ID)

	eventType := events.TypeReportApproved
	if to == StatusRejected {
		eventType = events.TypeReportRejected
	}
	s.bus.Publish(ctx, events.NewReportEvent(eventType,
		updated.ID, updated.StaffID, updated.DepartmentID, updated.WeekEnding, actor.ID))

	return updated, nil
}

// AddComment appends a comment to a report the actor may read.
func (s *Service) AddComment(ctx context.Context, actor *authz.Actor, reportID int64, dto AddCommentDTO) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rep, err := s.repo.GetByID(cctx, reportID)
	if err != nil {
		return nil, err
	}

	if decision := authz.Authorize(*actor, authz.ActionReportComment, resourceOf(rep)); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	comment := &Comment{
		ReportID:  reportID,
		AuthorID:  actor.ID,
		Content:   dto.Content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(cctx, comment); err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, audit.ActionCommentCreate, actor.ID, "comment added", map[string]any{
		"report_id":  reportID,
		"comment_id": comment.ID,
	})

	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, actor *authz.Actor, reportID int64) ([]*Comment, error) {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rep, err := s.repo.GetByID(cctx, reportID)
	if err != nil {
		return nil, err
	}

	if decision := authz.Authorize(*actor, authz.ActionReportRead, resourceOf(rep)); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	return s.repo.ListComments(cctx, reportID)
}

func (s *Service) canReview(actor *authz.Actor, rep *Report) bool {
	return authz.Authorize(*actor, authz.ActionReportReview, resourceOf(rep)).Allowed
}

func resourceOf(rep *Report) authz.Resource {
	return authz.Resource{OwnerID: rep.StaffID, DepartmentID: rep.DepartmentID}
}
