package admin

import (
	"time"

	"github.com/xyz-asif/oipet/internal/features/pets"
)

type UserCounts struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Admins     int64 `json:"admins"`
	Verified   int64 `json:"verified"`
	NewLast30d int64 `json:"newLast30d"`
}

type PetCounts struct {
	Total     int64                `json:"total"`
	BySpecies map[pets.Species]int `json:"bySpecies"`
}

type RecordCounts struct {
	Total  int64 `json:"total"`
	Last7d int64 `json:"last7d"`
}

type NotificationCounts struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

// Dashboard is the platform overview shown to admins.
type Dashboard struct {
	Users         UserCounts         `json:"users"`
	Pets          PetCounts          `json:"pets"`
	HealthRecords RecordCounts       `json:"healthRecords"`
	Notifications NotificationCounts `json:"notifications"`
}

type ListUsersQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// UpdateUserRequest is the allowlist of fields an admin may change on any
// account. Email and password are never writable here.
type UpdateUserRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	IsActive        *bool   `json:"isActive"`
	IsAdmin         *bool   `json:"isAdmin"`
	IsEmailVerified *bool   `json:"isEmailVerified"`
}

// ReportPeriod is how far back a report looks from now.
type ReportPeriod string

const (
	ReportDaily   ReportPeriod = "daily"
	ReportWeekly  ReportPeriod = "weekly"
	ReportMonthly ReportPeriod = "monthly"
)

// Days returns the span of p, or 0 when p is unknown.
func (p ReportPeriod) Days() int {
	switch p {
	case ReportDaily:
		return 1
	case ReportWeekly:
		return 7
	case ReportMonthly:
		return 30
	}
	return 0
}

// Usage counts what was created inside the report window.
type Usage struct {
	UserRegistrations int64 `json:"userRegistrations"`
	PetRegistrations  int64 `json:"petRegistrations"`
	HealthRecords     int64 `json:"healthRecords"`
	Notifications     int64 `json:"notifications"`
	TotalActivity     int64 `json:"totalActivity"`
}

type ActiveUsers struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

// Retention is the share of all users, in whole percent, that logged in
// within 1, 7 and 30 days.
type Retention struct {
	Day1  int `json:"day1"`
	Day7  int `json:"day7"`
	Day30 int `json:"day30"`
}

type Engagement struct {
	TotalUsers  int64       `json:"totalUsers"`
	ActiveUsers ActiveUsers `json:"activeUsers"`
	Retention   Retention   `json:"retention"`
}

type TopUser struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RecordCount  int64     `json:"recordCount"`
	LastActivity time.Time `json:"lastActivity"`
}

type Report struct {
	Period      ReportPeriod `json:"period"`
	From        time.Time    `json:"from"`
	To          time.Time    `json:"to"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Usage       Usage        `json:"usage"`
	Engagement  Engagement   `json:"engagement"`
	TopUsers    []TopUser    `json:"topUsers"`
}
