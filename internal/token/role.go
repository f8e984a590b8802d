package token

// Role is a canonical user role.
type Role string

const (
	RoleTalentVerifyStaff Role = "talent_verify_staff"
	RoleCompanyAdmin      Role = "company_admin"
	RoleCompanyStaff      Role = "company_staff"
	RoleGeneralUser       Role = "general_user"
)

// NormalizeRole maps legacy role spellings still observed at the API
// boundary onto the canonical set. Unknown values fall back to
// general_user so a bad role can never widen access.
func NormalizeRole(raw string) Role {
	switch raw {
	case "talent_verify_staff", "talent_verify", "admin":
		return RoleTalentVerifyStaff
	case "company_admin":
		return RoleCompanyAdmin
	case "company_staff", "company_user":
		return RoleCompanyStaff
	case "general_user":
		return RoleGeneralUser
	default:
		return RoleGeneralUser
	}
}

// CanManageAllCompanies reports whether the role may read and write every
// company's records.
func (r Role) CanManageAllCompanies() bool {
	return r == RoleTalentVerifyStaff
}

// CanManageCompanyData reports whether the role may write employment
// records for its own company.
func (r Role) CanManageCompanyData() bool {
	return r == RoleTalentVerifyStaff || r == RoleCompanyAdmin
}
