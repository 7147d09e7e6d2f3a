package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/report"
)

// ReportRepository implements report.Repository using GORM. Transition is the
// serialization point for concurrent decisions: a conditional UPDATE guarded
// by the expected predecessor statuses, with the audit entry committed in
// the same transaction.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.Repository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rep).Error; err != nil {
			return err
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*report.Report, error) {
	var rep report.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrReportNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepository) ListByStaff(ctx context.Context, staffID int64, limit, offset int) ([]*report.Report, error) {
	var reports []*report.Report
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", staffID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

func (r *ReportRepository) ListByDepartment(ctx context.Context, departmentID int64, limit, offset int) ([]*report.Report, error) {
	var reports []*report.Report
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

func (r *ReportRepository) ListAll(ctx context.Context, limit, offset int) ([]*report.Report, error) {
	var reports []*report.Report
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

// Transition applies "UPDATE ... WHERE id = ? AND status IN (predecessors)".
// Zero affected rows means the guard failed: AlreadyFinalized when the row
// reached a terminal status, InvalidTransition otherwise. The audit entry
// shares the transaction, so a failed audit write rolls the transition back.
func (r *ReportRepository) Transition(ctx context.Context, t report.Transition) (*report.Report, error) {
	var updated report.Report

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": t.To}
		switch t.To {
		case report.StatusApproved:
			updates["approved_at"] = t.At
		case report.StatusRejected:
			updates["rejected_at"] = t.At
		}

		res := tx.Model(&report.Report{}).
			Where("id = ? AND status IN ?", t.ReportID, t.From).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var current report.Report
			if err := tx.Where("id = ?", t.ReportID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return internal.ErrReportNotFound
				}
				return err
			}
			if current.Status.IsTerminal() {
				return internal.ErrAlreadyFinalized
			}
			return internal.ErrInvalidTransition
		}

		if t.Audit != nil {
			if err := tx.Create(t.Audit).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", t.ReportID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ReportRepository) CreateComment(ctx context.Context, comment *report.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *ReportRepository) ListComments(ctx context.Context, reportID int64) ([]*report.Comment, error) {
	var comments []*report.Comment
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}
