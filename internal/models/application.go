package models

import "time"

// ApplicationStatus is the landlord's decision on an application.
// It is set once: accepted and rejected are terminal.
type ApplicationStatus string

const (
	// ApplicationStatusPending indicates the application awaits landlord review.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusAccepted indicates the landlord accepted the applicant.
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	// ApplicationStatusRejected indicates the landlord declined the applicant.
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ApplicationStage is the coarse lifecycle phase. It only ever moves forward:
// application -> processing (on acceptance) -> completed (on finalization).
type ApplicationStage string

const (
	StageApplication ApplicationStage = "application"
	StageProcessing  ApplicationStage = "processing"
	StageCompleted   ApplicationStage = "completed"
)

// StageIndex returns the ordinal position of a stage for reachability checks.
func StageIndex(s ApplicationStage) int {
	switch s {
	case StageProcessing:
		return 1
	case StageCompleted:
		return 2
	default:
		return 0
	}
}

// ContractStatus is the fine-grained signing progress. It is persisted for
// query convenience but always recomputed from the signature flags plus
// contract presence on every write; a stored value is never trusted as an
// input to a decision.
type ContractStatus string

const (
	ContractStatusPending          ContractStatus = "pending"
	ContractStatusUploaded         ContractStatus = "uploaded"
	ContractStatusSignedByLandlord ContractStatus = "signed_by_landlord"
	ContractStatusSignedByTenant   ContractStatus = "signed_by_tenant"
	ContractStatusCompleted        ContractStatus = "completed"
)

// PaymentStatus tracks the deposit payment outcome. paid is terminal.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Application is the authoritative record for one rental application.
// id, property/applicant/owner references, submitted_at, and
// appointment_time are immutable after creation.
type Application struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PropertyID  uint      `gorm:"not null;index" json:"property_id"`
	Property    *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	ApplicantID uint      `gorm:"not null;index" json:"applicant_id"`
	Applicant   *User     `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Status   ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Feedback string            `gorm:"type:text" json:"feedback,omitempty"`
	Stage    ApplicationStage  `gorm:"type:varchar(20);not null;default:'application';index" json:"stage"`

	ContractURL            string         `gorm:"size:512" json:"contract_url,omitempty"`
	ContractStatus         ContractStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"contract_status"`
	ContractSignedLandlord bool           `gorm:"not null;default:false" json:"contract_signed_landlord"`
	ContractSignedTenant   bool           `gorm:"not null;default:false" json:"contract_signed_tenant"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`

	SubmittedAt     time.Time  `gorm:"not null;autoCreateTime" json:"submitted_at"`
	AppointmentTime *time.Time `json:"appointment_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasContract reports whether an initial contract document was uploaded.
func (a *Application) HasContract() bool {
	return a.ContractURL != ""
}

// BothSigned reports whether landlord and tenant have both signed.
func (a *Application) BothSigned() bool {
	return a.ContractSignedLandlord && a.ContractSignedTenant
}

// IsPaid reports whether the deposit payment has been recorded.
func (a *Application) IsPaid() bool {
	return a.PaymentStatus == PaymentStatusPaid
}

// ReadyToFinalize reports whether every completion condition holds but the
// record has not yet been moved to the completed stage. Callers should offer
// a manual finalize control exactly when this is true.
func (a *Application) ReadyToFinalize() bool {
	return a.BothSigned() && a.IsPaid() && a.Stage != StageCompleted
}

// DeriveContractStatus computes the authoritative contract status from
// contract presence and the two signature flags. This is the single source of
// the denormalized contract_status column.
func DeriveContractStatus(hasContract, signedLandlord, signedTenant bool) ContractStatus {
	switch {
	case !hasContract:
		return ContractStatusPending
	case signedLandlord && signedTenant:
		return ContractStatusCompleted
	case signedLandlord:
		return ContractStatusSignedByLandlord
	case signedTenant:
		return ContractStatusSignedByTenant
	default:
		return ContractStatusUploaded
	}
}
