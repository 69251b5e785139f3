package workflow

import "homelet/internal/models"

// StageTab describes one tab of the three-stage stepper.
type StageTab struct {
	Stage     models.ApplicationStage `json:"stage"`
	Reachable bool                    `json:"reachable"`
	Active    bool                    `json:"active"`
}

// Surface is the full interaction contract for one record as seen by one
// caller: which stages are reachable and which actions are enabled. Clients
// must re-derive it from the authoritative record after every action rather
// than caching an earlier answer.
type Surface struct {
	Stages            []StageTab `json:"stages"`
	CanRespond        bool       `json:"can_respond"`
	CanUploadContract bool       `json:"can_upload_contract"`
	CanSignLandlord   bool       `json:"can_sign_landlord"`
	CanSignTenant     bool       `json:"can_sign_tenant"`
	CanPay            bool       `json:"can_pay"`
	CanFinalize       bool       `json:"can_finalize"`
}

// For derives the interaction surface for the given caller. A stage is
// reachable when its index does not exceed the record's stage index; the
// application stage is always reachable. All actions are disabled once the
// record is rejected.
func For(app *models.Application, caller Caller) Surface {
	idx := models.StageIndex(app.Stage)
	s := Surface{
		Stages: []StageTab{
			{Stage: models.StageApplication, Reachable: true, Active: app.Stage == models.StageApplication},
			{Stage: models.StageProcessing, Reachable: idx >= 1, Active: app.Stage == models.StageProcessing},
			{Stage: models.StageCompleted, Reachable: idx >= 2, Active: app.Stage == models.StageCompleted},
		},
	}

	if app.Status == models.ApplicationStatusRejected {
		return s
	}

	isOwner := caller.UserID == app.OwnerID
	isApplicant := caller.UserID == app.ApplicantID

	s.CanRespond = isOwner && app.Status == models.ApplicationStatusPending
	s.CanUploadContract = isOwner && app.Status == models.ApplicationStatusAccepted && !app.HasContract()
	s.CanSignLandlord = isOwner && app.HasContract() && !app.ContractSignedLandlord
	s.CanSignTenant = isApplicant && app.HasContract() && !app.ContractSignedTenant
	s.CanPay = isApplicant && app.BothSigned() && !app.IsPaid()
	s.CanFinalize = (isOwner || isApplicant) && app.ReadyToFinalize()
	return s
}
