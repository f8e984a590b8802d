package client

// User is the authoritative account representation returned by the
// backend. The provisional user decoded from a token payload fills a
// subset of these fields.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID int64  `json:"company,omitempty"`
}

// AuthResponse is what login and registration return: the user plus a
// fresh token pair.
type AuthResponse struct {
	User    User   `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterInput is the payload for self-registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Department is a unit within a company.
type Department struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	CompanyID int64  `json:"company,omitempty"`
}

// Company mirrors the backend company serializer.
type Company struct {
	ID                int64        `json:"id,omitempty"`
	Name              string       `json:"name"`
	RegistrationNum   string       `json:"registration_number"`
	RegistrationDate  string       `json:"registration_date"`
	Address           string       `json:"address"`
	ContactPerson     string       `json:"contact_person"`
	ContactPhone      string       `json:"contact_phone,omitempty"`
	EmailAddress      string       `json:"email_address,omitempty"`
	NumberOfEmployees int          `json:"number_of_employees,omitempty"`
	Departments       []Department `json:"departments,omitempty"`
	CreatedAt         string       `json:"created_at,omitempty"`
	UpdatedAt         string       `json:"updated_at,omitempty"`
}

// EmployeeRole is one entry in an employee's employment history. A nil
// DateLeft marks the current position.
type EmployeeRole struct {
	ID             int64   `json:"id,omitempty"`
	DepartmentID   int64   `json:"department"`
	DepartmentName string  `json:"department_name,omitempty"`
	Role           string  `json:"role"`
	DateStarted    string  `json:"date_started"`
	DateLeft       *string `json:"date_left,omitempty"`
	Duties         string  `json:"duties,omitempty"`
}

// Employee mirrors the backend employee serializer.
type Employee struct {
	ID                int64          `json:"id,omitempty"`
	Name              string         `json:"name"`
	EmployeeID        string         `json:"employee_id,omitempty"`
	CompanyID         int64          `json:"company"`
	CompanyName       string         `json:"company_name,omitempty"`
	Roles             []EmployeeRole `json:"roles,omitempty"`
	CurrentDepartment string         `json:"current_department,omitempty"`
}

// BulkUploadResult summarizes a companies bulk upload.
type BulkUploadResult struct {
	Success          bool     `json:"success"`
	Processed        int      `json:"processed"`
	Created          int      `json:"created,omitempty"`
	CompaniesCreated int      `json:"companies_created,omitempty"`
	UsersCreated     int      `json:"users_created,omitempty"`
	SkippedExisting  int      `json:"skipped_existing"`
	Errors           int      `json:"errors"`
	ErrorDetails     []string `json:"error_details,omitempty"`
}

// BulkEditResult summarizes a bulk edit of existing records.
type BulkEditResult struct {
	Success      bool     `json:"success"`
	Processed    int      `json:"processed"`
	Updated      int      `json:"updated"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
}

// ActivityEntry is one line of recent activity on a dashboard.
type ActivityEntry struct {
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// AdminStats is the platform-wide dashboard for verification staff.
type AdminStats struct {
	TotalCompanies int             `json:"totalCompanies"`
	TotalEmployees int             `json:"totalEmployees"`
	RecentUploads  int             `json:"recentUploads"`
	RecentActivity []ActivityEntry `json:"recentActivity"`
}

// DepartmentStat is a per-department headcount.
type DepartmentStat struct {
	Name          string `json:"name"`
	EmployeeCount int    `json:"employeeCount"`
}

// CompanyStats is the dashboard scoped to the caller's company.
type CompanyStats struct {
	TotalEmployees int              `json:"totalEmployees"`
	Departments    []DepartmentStat `json:"departments"`
	RecentUpdates  int              `json:"recentUpdates"`
}

// CompanyOverview is computed client-side from a company listing, the way
// the verification dashboard summarizes the directory.
type CompanyOverview struct {
	TotalCompanies             int
	TotalEmployees             int
	CompaniesWithEmployees     int
	AverageEmployeesPerCompany int
}
