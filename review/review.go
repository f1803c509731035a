package review

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"partner-onboarding-api/models"
)

// InvalidStatusError rejects a status outside the entity type's allowed set.
type InvalidStatusError struct {
	Status     models.ReviewStatus
	EntityType models.EntityType
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status %q is not valid for %s accounts", e.Status, e.EntityType)
}

// UnknownIDsError aborts a bulk update, naming every id that does not exist.
type UnknownIDsError struct {
	IDs []string
}

func (e *UnknownIDsError) Error() string {
	return "unknown ids: " + strings.Join(e.IDs, ", ")
}

var allowedStatuses = map[models.ReviewStatus]bool{
	models.StatusPending:         true,
	models.StatusPendingApproval: true,
	models.StatusApproved:        true,
	models.StatusRejected:        true,
	models.StatusSuspended:       true,
}

// Workflow applies admin review decisions to staged entities.
type Workflow struct {
	db *gorm.DB
}

func NewWorkflow(db *gorm.DB) *Workflow {
	return &Workflow{db: db}
}

// SetStatus transitions one entity. Approval stamps ApprovedAt/ApprovedBy;
// rejection and suspension record the remarks as the reason.
func (w *Workflow) SetStatus(ent models.StagedEntity, status models.ReviewStatus, reviewerID, remarks string) error {
	if !allowedStatuses[status] {
		return &InvalidStatusError{Status: status, EntityType: ent.Type()}
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(ent, "id = ?", ent.GetID()).Error; err != nil {
			return err
		}
		applyStatus(ent, status, reviewerID, remarks)
		return tx.Save(ent).Error
	})
}

// BulkSetStatus applies one status across a list of ids as a single
// all-or-nothing batch. Any unknown id fails the whole batch with the full
// offending list; no entity changes.
func (w *Workflow) BulkSetStatus(t models.EntityType, ids []string, status models.ReviewStatus, reviewerID, remarks string) (int, error) {
	if !allowedStatuses[status] {
		return 0, &InvalidStatusError{Status: status, EntityType: t}
	}
	updated := 0
	err := w.db.Transaction(func(tx *gorm.DB) error {
		entities, err := fetchAll(tx, t, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, entities); len(missing) > 0 {
			return &UnknownIDsError{IDs: missing}
		}
		for _, ent := range entities {
			applyStatus(ent, status, reviewerID, remarks)
			if err := tx.Save(ent).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func applyStatus(ent models.StagedEntity, status models.ReviewStatus, reviewerID, remarks string) {
	rev := ent.Review()
	now := time.Now().UTC()
	rev.Status = status
	rev.ReviewedAt = &now
	switch status {
	case models.StatusApproved:
		rev.ApprovedAt = &now
		rev.ApprovedBy = &reviewerID
		rev.RejectionReason = ""
	case models.StatusRejected, models.StatusSuspended:
		rev.RejectionReason = remarks
	}
}

func fetchAll(tx *gorm.DB, t models.EntityType, ids []string) ([]models.StagedEntity, error) {
	switch t {
	case models.EntityDriver:
		var rows []models.Driver
		if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]models.StagedEntity, len(rows))
		for i := range rows {
			out[i] = &rows[i]
		}
		return out, nil
	case models.EntityRestaurant:
		var rows []models.Restaurant
		if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]models.StagedEntity, len(rows))
		for i := range rows {
			out[i] = &rows[i]
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown entity type: %s", t)
}

func missingIDs(ids []string, entities []models.StagedEntity) []string {
	found := map[string]bool{}
	for _, ent := range entities {
		found[ent.GetID()] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
