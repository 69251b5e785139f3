// Package workflow implements the application lifecycle state machine:
// transition validation, the timeline projection, and the per-role
// interaction surface. Everything in this package is pure: callers load the
// authoritative record, ask the engine for a decision, and persist the
// resulting Change as a single combined update.
package workflow

import (
	"strings"

	"homelet/internal/models"
)

// Caller is the explicit identity of the user invoking an action. Workflow
// operations never consult ambient session state.
type Caller struct {
	UserID uint
	Role   models.Role
}

// Change is the set of record fields an action produces, keyed by column
// name. A Change must be persisted as ONE combined update so that multi-field
// transitions (signature flag + stage) are never observable half-applied.
type Change map[string]any

// Apply mutates a record in place the way the record store would apply the
// combined update. Used by the service for the local copy and by tests.
func (ch Change) Apply(app *models.Application) {
	for col, val := range ch {
		switch col {
		case "status":
			app.Status = val.(models.ApplicationStatus)
		case "feedback":
			app.Feedback = val.(string)
		case "stage":
			app.Stage = val.(models.ApplicationStage)
		case "contract_url":
			app.ContractURL = val.(string)
		case "contract_status":
			app.ContractStatus = val.(models.ContractStatus)
		case "contract_signed_landlord":
			app.ContractSignedLandlord = val.(bool)
		case "contract_signed_tenant":
			app.ContractSignedTenant = val.(bool)
		case "payment_status":
			app.PaymentStatus = val.(models.PaymentStatus)
		}
	}
}

// Decision is a landlord's response to a pending application.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// frozen reports the rejection freeze: once rejected, no contract, signature,
// payment, or finalization activity is permitted.
func frozen(app *models.Application) error {
	if app.Status == models.ApplicationStatusRejected {
		return models.NewInvalidTransitionError("application was rejected; no further actions are permitted")
	}
	return nil
}

// Respond records the landlord's accept/reject decision on a pending
// application. Rejecting requires non-empty feedback; accepting also advances
// the stage to processing.
func Respond(app *models.Application, caller Caller, decision Decision, feedback string) (Change, error) {
	if caller.UserID != app.OwnerID {
		return nil, models.NewForbiddenError("only the property owner can respond to an application")
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, models.NewInvalidTransitionError("application has already been decided")
	}

	switch decision {
	case DecisionAccept:
		return Change{
			"status":   models.ApplicationStatusAccepted,
			"feedback": strings.TrimSpace(feedback),
			"stage":    models.StageProcessing,
		}, nil
	case DecisionReject:
		if strings.TrimSpace(feedback) == "" {
			return nil, models.NewValidationError("feedback is required when rejecting an application")
		}
		return Change{
			"status":   models.ApplicationStatusRejected,
			"feedback": strings.TrimSpace(feedback),
		}, nil
	default:
		return nil, models.NewValidationError("decision must be accept or reject")
	}
}

// PrepareContractUpload validates that the caller may upload the initial
// contract document. The service calls this before touching the document
// store so an invalid action never uploads anything.
func PrepareContractUpload(app *models.Application, caller Caller) error {
	if err := frozen(app); err != nil {
		return err
	}
	if caller.UserID != app.OwnerID {
		return models.NewForbiddenError("only the property owner can upload the contract")
	}
	if app.Status != models.ApplicationStatusAccepted {
		return models.NewPreconditionError("application must be accepted before a contract can be uploaded")
	}
	if app.HasContract() {
		return models.NewPreconditionError("a contract already exists; upload a signature instead")
	}
	return nil
}

// ContractUploaded builds the mutation for a successfully stored initial
// contract.
func ContractUploaded(app *models.Application, url string) Change {
	return Change{
		"contract_url":    url,
		"contract_status": models.DeriveContractStatus(true, app.ContractSignedLandlord, app.ContractSignedTenant),
	}
}

// PrepareSignatureUpload validates that the caller may upload a signed
// contract as the given signer role. Re-signing by a party that already
// signed is allowed and treated as an overwrite, not an error.
func PrepareSignatureUpload(app *models.Application, caller Caller, signer models.Role) error {
	if err := frozen(app); err != nil {
		return err
	}
	if !app.HasContract() {
		return models.NewPreconditionError("no contract to sign; the initial contract must be uploaded first")
	}
	switch signer {
	case models.RoleLandlord:
		if caller.UserID != app.OwnerID {
			return models.NewForbiddenError("only the property owner can sign as landlord")
		}
	case models.RoleTenant:
		if caller.UserID != app.ApplicantID {
			return models.NewForbiddenError("only the applicant can sign as tenant")
		}
	default:
		return models.NewValidationError("signer role must be landlord or tenant")
	}
	return nil
}

// SignatureRecorded builds the mutation for a successfully stored signature.
// If this write makes both signatures true and the deposit is already paid,
// the stage advances to completed in the same Change. This is the only
// automatic cross-field transition in the system.
func SignatureRecorded(app *models.Application, signer models.Role) Change {
	signedLandlord := app.ContractSignedLandlord || signer == models.RoleLandlord
	signedTenant := app.ContractSignedTenant || signer == models.RoleTenant

	ch := Change{
		"contract_status": models.DeriveContractStatus(true, signedLandlord, signedTenant),
	}
	switch signer {
	case models.RoleLandlord:
		ch["contract_signed_landlord"] = true
	case models.RoleTenant:
		ch["contract_signed_tenant"] = true
	}
	deriveCompletion(ch, app.Stage, signedLandlord, signedTenant, app.IsPaid())
	return ch
}

// PreparePayment validates that the caller may pay the deposit. Both parties
// must have signed first; the gate is re-validated here regardless of what
// the UI believed. Paying an already-paid application is a no-op, not an
// error, so a caller can safely retry after an ambiguous failure.
func PreparePayment(app *models.Application, caller Caller) error {
	if err := frozen(app); err != nil {
		return err
	}
	if caller.UserID != app.ApplicantID {
		return models.NewForbiddenError("only the applicant can pay the deposit")
	}
	if !app.BothSigned() {
		return models.NewPreconditionError("both parties must sign the contract before payment")
	}
	return nil
}

// PaymentRecorded builds the mutation for a successful deposit payment,
// auto-advancing the stage when both signatures already hold.
func PaymentRecorded(app *models.Application) Change {
	ch := Change{"payment_status": models.PaymentStatusPaid}
	deriveCompletion(ch, app.Stage, app.ContractSignedLandlord, app.ContractSignedTenant, true)
	return ch
}

// Finalize builds the explicit manual finalization for records where the
// automatic paths did not fire (e.g. signatures completed before payment and
// the paying write raced past the advancing one). Either party may finalize.
func Finalize(app *models.Application, caller Caller) (Change, error) {
	if err := frozen(app); err != nil {
		return nil, err
	}
	if caller.UserID != app.OwnerID && caller.UserID != app.ApplicantID {
		return nil, models.NewForbiddenError("only the landlord or the applicant can finalize")
	}
	if app.Stage == models.StageCompleted {
		return nil, models.NewInvalidTransitionError("application is already completed")
	}
	if !app.BothSigned() || !app.IsPaid() {
		return nil, models.NewPreconditionError("finalization requires both signatures and a recorded payment")
	}
	return Change{"stage": models.StageCompleted}, nil
}

// deriveCompletion is the single auto-advance rule: whenever both signatures
// and the payment hold and the stage has not reached completed, the Change
// also moves the stage. Because every path funnels through this one rule the
// final state is identical for every arrival order of the two signatures and
// the payment.
func deriveCompletion(ch Change, stage models.ApplicationStage, signedLandlord, signedTenant, paid bool) {
	if signedLandlord && signedTenant && paid && stage != models.StageCompleted {
		ch["stage"] = models.StageCompleted
	}
}

// CheckInvariants verifies the record-level invariants that must hold at
// every observable point. It is exercised by tests after every action.
func CheckInvariants(app *models.Application) error {
	if app.Stage != models.StageApplication && app.Status != models.ApplicationStatusAccepted {
		return models.NewInvalidTransitionError("stage advanced without acceptance")
	}
	if app.Stage == models.StageCompleted && !(app.BothSigned() && app.IsPaid()) {
		return models.NewInvalidTransitionError("completed stage without signatures and payment")
	}
	if app.ContractStatus == models.ContractStatusCompleted && !app.BothSigned() {
		return models.NewInvalidTransitionError("contract status completed without both signatures")
	}
	if !app.HasContract() {
		if app.ContractSignedLandlord || app.ContractSignedTenant || app.ContractStatus != models.ContractStatusPending {
			return models.NewInvalidTransitionError("signature state present without a contract")
		}
	}
	if app.Status == models.ApplicationStatusRejected {
		if app.HasContract() || app.BothSigned() || app.IsPaid() || app.Stage != models.StageApplication {
			return models.NewInvalidTransitionError("rejected application has downstream activity")
		}
	}
	return nil
}
