package models

import "time"

// Role defines the kind of actor a user is in the marketplace.
type Role string

const (
	// RoleTenant is a student or other renter browsing and applying.
	RoleTenant Role = "tenant"
	// RoleLandlord owns properties and reviews applications.
	RoleLandlord Role = "landlord"
	// RoleAgent manages listings on behalf of landlords.
	RoleAgent Role = "agent"
)

// User represents a registered tenant, landlord, or agent.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'tenant';index" json:"role"`
	Phone        string    `gorm:"size:32" json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanPublishListings reports whether the user may create property listings.
func (u *User) CanPublishListings() bool {
	return u.Role == RoleLandlord || u.Role == RoleAgent
}
