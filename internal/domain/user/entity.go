package user

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"     // Clinic admin - manages settings and overrides
	RoleDokter    Role = "dokter"    // Doctor
	RoleParamedis Role = "paramedis" // Nurse / paramedic
	RoleNonMedis  Role = "non_medis" // Administrative / support staff
	RoleBendahara Role = "bendahara" // Treasurer - payroll only, no shifts
)

// AttendanceRoles are the roles allowed to check in against a shift.
var AttendanceRoles = []Role{RoleDokter, RoleParamedis, RoleNonMedis}

type User struct {
	ID             string
	Name           string
	Role           Role
	IsActive       bool
	WorkLocationID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanAttend reports whether the user may record attendance at all.
// Inactive accounts and roles without shifts (admin, bendahara) cannot.
func (u *User) CanAttend() bool {
	if !u.IsActive {
		return false
	}
	for _, r := range AttendanceRoles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin checks if user can manage tolerance settings and overrides.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
