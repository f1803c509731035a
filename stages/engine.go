package stages

import (
	"gorm.io/gorm"

	"partner-onboarding-api/models"
)

// Engine owns stage-by-stage completion logic for any staged entity type.
// It is parameterized by the entity type's stage table, so drivers and
// restaurants share one implementation. Every submission runs inside a
// repository transaction: the entity is re-read, validated against the merged
// (submitted over persisted) field view, and saved atomically.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// StageInfo is the caller-facing description of a stage.
type StageInfo struct {
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
	OptionalFields []string `json:"optional_fields,omitempty"`
}

func infoFor(def StageDefinition) *StageInfo {
	return &StageInfo{
		Number:         def.Number,
		Title:          def.Title,
		Description:    def.Description,
		RequiredFields: def.RequiredNames(),
		OptionalFields: def.OptionalNames(),
	}
}

// SubmitResult reports the outcome of a successful stage submission.
type SubmitResult struct {
	Entity    models.StagedEntity `json:"entity"`
	NextStage *StageInfo          `json:"next_stage"` // nil once registration is complete
	Complete  bool                `json:"is_registration_complete"`
}

// SubmitStage validates and applies one stage submission.
//
// Rules, in order:
//   - the stage number must exist for the entity type
//   - stage k (k>1) requires stage k-1 already completed
//   - every required field must be present in the submission or already
//     persisted (partial re-submission), all missing names are reported
//   - every present field must pass its validator
//   - the final stage of a payment-gated type requires a completed payment
//
// On success the submission is merged onto the entity (last write wins per
// field), the stage is added to the completed set, currentStage advances
// monotonically capped at the stage count, and the derived completion flag is
// recomputed. Re-submitting a completed stage is idempotent.
func (e *Engine) SubmitStage(ent models.StagedEntity, stageNumber int, payload map[string]interface{}) (*SubmitResult, error) {
	defs := DefinitionsFor(ent.Type())
	total := len(defs)
	if stageNumber < 1 || stageNumber > total {
		return nil, &UnknownStageError{Stage: stageNumber, Total: total}
	}
	def := defs[stageNumber-1]

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(ent, "id = ?", ent.GetID()).Error; err != nil {
			return err
		}
		prog := ent.Progress()

		if stageNumber > 1 && !prog.CompletedStages.Has(stageNumber-1) {
			return &OutOfOrderError{Stage: stageNumber, MissingStage: stageNumber - 1}
		}

		normalized, err := normalizePayload(def, payload)
		if err != nil {
			return err
		}

		// merged view: submitted values shadow persisted ones
		view := FieldView(func(name string) (interface{}, bool) {
			if v, ok := normalized[name]; ok {
				return v, true
			}
			return ent.StageFieldValue(name)
		})

		var missing []string
		for _, spec := range def.Required {
			if _, ok := view(spec.Name); !ok {
				missing = append(missing, spec.Name)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{Missing: missing}
		}

		for _, spec := range def.Fields() {
			if spec.Validate == nil {
				continue
			}
			value, ok := view(spec.Name)
			if !ok {
				continue
			}
			if verr := spec.Validate(value, view); verr != nil {
				return &InvalidFieldError{Field: spec.Name, Reason: verr.Error()}
			}
		}

		if stageNumber == total && PaymentGated(ent.Type()) &&
			ent.Payment().PaymentStatus != models.PaymentCompleted {
			return ErrPaymentRequired
		}

		for name, value := range normalized {
			if serr := ent.SetStageField(name, value); serr != nil {
				return serr
			}
		}

		prog.CompletedStages = prog.CompletedStages.With(stageNumber)
		if next := stageNumber + 1; next > prog.CurrentStage {
			prog.CurrentStage = next
		}
		if prog.CurrentStage > total {
			prog.CurrentStage = total
		}
		prog.RegistrationComplete = registrationComplete(ent, total)

		return tx.Save(ent).Error
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Entity: ent, Complete: ent.Progress().RegistrationComplete}
	if !result.Complete {
		result.NextStage = e.nextIncomplete(ent, defs)
	}
	return result, nil
}

// nextIncomplete picks the lowest-numbered stage not yet completed.
func (e *Engine) nextIncomplete(ent models.StagedEntity, defs []StageDefinition) *StageInfo {
	completed := ent.Progress().CompletedStages
	for _, def := range defs {
		if !completed.Has(def.Number) {
			return infoFor(def)
		}
	}
	return nil
}

func registrationComplete(ent models.StagedEntity, total int) bool {
	if !ent.Progress().CompletedStages.Covers(total) {
		return false
	}
	if PaymentGated(ent.Type()) && ent.Payment().PaymentStatus != models.PaymentCompleted {
		return false
	}
	return true
}

// StageStatus is one row of the progress dashboard.
type StageStatus struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Current     bool   `json:"is_current"`
}

// Dashboard summarizes per-stage progress plus aggregates.
type Dashboard struct {
	Stages         []StageStatus        `json:"stages"`
	TotalStages    int                  `json:"total_stages"`
	CompletedCount int                  `json:"completed_count"`
	Percentage     int                  `json:"percentage"`
	Complete       bool                 `json:"is_registration_complete"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
}

// GetDashboard is a pure read over the entity's progression state.
func (e *Engine) GetDashboard(ent models.StagedEntity) *Dashboard {
	defs := DefinitionsFor(ent.Type())
	prog := ent.Progress()

	dash := &Dashboard{
		TotalStages:   len(defs),
		Complete:      prog.RegistrationComplete,
		PaymentStatus: ent.Payment().PaymentStatus,
	}
	for _, def := range defs {
		done := prog.CompletedStages.Has(def.Number)
		if done {
			dash.CompletedCount++
		}
		dash.Stages = append(dash.Stages, StageStatus{
			Number:      def.Number,
			Title:       def.Title,
			Description: def.Description,
			Completed:   done,
			Current:     def.Number == prog.CurrentStage,
		})
	}
	if dash.TotalStages > 0 {
		dash.Percentage = dash.CompletedCount * 100 / dash.TotalStages
	}
	return dash
}

// GetStageFields projects only the fields declared for one stage, for
// partial-profile display.
func (e *Engine) GetStageFields(ent models.StagedEntity, stageNumber int) (*StageInfo, map[string]interface{}, error) {
	defs := DefinitionsFor(ent.Type())
	if stageNumber < 1 || stageNumber > len(defs) {
		return nil, nil, &UnknownStageError{Stage: stageNumber, Total: len(defs)}
	}
	def := defs[stageNumber-1]

	fields := map[string]interface{}{}
	for _, spec := range def.Fields() {
		if value, ok := ent.StageFieldValue(spec.Name); ok {
			fields[spec.Name] = value
		}
	}
	return infoFor(def), fields, nil
}
