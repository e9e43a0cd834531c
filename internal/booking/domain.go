// Package booking exposes read-only snapshots of booking workflow records.
// The pricing, commission and invoicing cores consume these snapshots; the
// booking workflow itself (CRUD, scheduling, check-in) lives outside this
// repository.
package booking

import "time"

// Booking is a read-only header snapshot.
type Booking struct {
	ID            int64
	TenantID      int64
	CustomerID    int64
	AgentID       *int64
	BookingDate   time.Time
	StartDate     time.Time
	EndDate       *time.Time
	TotalDives    int
	Status        string
	DivePackageID *int64
}

// BookingDive is one logged dive on a booking.
type BookingDive struct {
	ID        int64
	BookingID int64
	DiveDate  time.Time
	SiteName  string
	DiveNo    int
}

// BookingEquipment is one equipment rental line on a booking.
type BookingEquipment struct {
	ID          int64
	BookingID   int64
	EquipmentID int64
	Description string
	DailyRate   float64
	Days        int
}

// CustomerType mirrors the catalog applicability classes.
type CustomerType string

const (
	CustomerTypeAll       CustomerType = "ALL"
	CustomerTypeMember    CustomerType = "MEMBER"
	CustomerTypeNonMember CustomerType = "NON_MEMBER"
	CustomerTypeGroup     CustomerType = "GROUP"
	CustomerTypeCorporate CustomerType = "CORPORATE"
)

// Customer is a read-only customer snapshot.
type Customer struct {
	ID       int64
	TenantID int64
	Name     string
	Type     CustomerType
	Email    *string
}

// Agent is a read-only agent snapshot.
type Agent struct {
	ID       int64
	TenantID int64
	Name     string
	IsActive bool
}
