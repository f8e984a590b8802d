package stub

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// visibleEmployees scopes the listing: company users see only their own
// company's records, verification staff and general users see all.
func visibleEmployees(user *userRecord, employees []client.Employee) []client.Employee {
	role := token.NormalizeRole(user.Role)
	if role != token.RoleCompanyAdmin && role != token.RoleCompanyStaff {
		return employees
	}
	var out []client.Employee
	for _, employee := range employees {
		if employee.CompanyID == user.CompanyID {
			out = append(out, employee)
		}
	}
	return out
}

// canWriteEmployee enforces company scoping on writes: a company admin
// may only touch records of their own company.
func canWriteEmployee(user *userRecord, companyID int64) bool {
	role := token.NormalizeRole(user.Role)
	if role == token.RoleTalentVerifyStaff {
		return true
	}
	return role == token.RoleCompanyAdmin && user.CompanyID == companyID
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	employees := visibleEmployees(requestUser(r), s.data.employeeList())
	s.data.mu.Unlock()

	if search := strings.ToLower(r.URL.Query().Get("search")); search != "" {
		var filtered []client.Employee
		for _, employee := range employees {
			if strings.Contains(strings.ToLower(employee.Name), search) ||
				strings.Contains(strings.ToLower(employee.EmployeeID), search) ||
				strings.Contains(strings.ToLower(employee.CompanyName), search) {
				filtered = append(filtered, employee)
			}
		}
		employees = filtered
	}

	results := make([]any, len(employees))
	for i, employee := range employees {
		results[i] = employee
	}
	writeListing(w, r, results)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	employee, ok := s.data.employees[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, *employee)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var input client.EmployeeInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field is required."}})
		return
	}
	if !canWriteEmployee(requestUser(r), input.CompanyID) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	company, ok := s.data.companies[input.CompanyID]
	if !ok {
		writeError(w, http.StatusBadRequest, "company not found")
		return
	}

	employee := &client.Employee{
		Name:       input.Name,
		EmployeeID: input.EmployeeID,
		CompanyID:  input.CompanyID,
		Roles:      input.Roles,
	}
	for i := range employee.Roles {
		if dept, ok := s.data.departments[employee.Roles[i].DepartmentID]; ok {
			employee.Roles[i].DepartmentName = dept.Name
		}
	}
	s.data.addEmployee(employee)
	company.NumberOfEmployees++
	writeJSON(w, http.StatusCreated, *employee)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	var input client.EmployeeInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	employee, ok := s.data.employees[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !canWriteEmployee(requestUser(r), employee.CompanyID) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	employee.Name = input.Name
	employee.EmployeeID = input.EmployeeID
	if len(input.Roles) > 0 {
		employee.Roles = input.Roles
		for i := range employee.Roles {
			if employee.Roles[i].ID == 0 {
				employee.Roles[i].ID = s.data.id()
			}
			if dept, ok := s.data.departments[employee.Roles[i].DepartmentID]; ok {
				employee.Roles[i].DepartmentName = dept.Name
			}
			if employee.Roles[i].DateLeft == nil {
				employee.CurrentDepartment = employee.Roles[i].DepartmentName
			}
		}
	}
	writeJSON(w, http.StatusOK, *employee)
}

func (s *Server) handlePatchEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	employee, ok := s.data.employees[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !canWriteEmployee(requestUser(r), employee.CompanyID) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	if name, ok := fields["name"].(string); ok {
		employee.Name = name
	}
	if employeeID, ok := fields["employee_id"].(string); ok {
		employee.EmployeeID = employeeID
	}
	writeJSON(w, http.StatusOK, *employee)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	employee, ok := s.data.employees[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !canWriteEmployee(requestUser(r), employee.CompanyID) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	delete(s.data.employees, id)
	if company, ok := s.data.companies[employee.CompanyID]; ok && company.NumberOfEmployees > 0 {
		company.NumberOfEmployees--
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employee"), 10, 64)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	var roles []client.EmployeeRole
	for _, employee := range visibleEmployees(requestUser(r), s.data.employeeList()) {
		if employeeID != 0 && employee.ID != employeeID {
			continue
		}
		roles = append(roles, employee.Roles...)
	}
	// Chronological, oldest first, the way a history timeline reads.
	for i := 0; i < len(roles); i++ {
		for j := i + 1; j < len(roles); j++ {
			if roles[j].DateStarted < roles[i].DateStarted {
				roles[i], roles[j] = roles[j], roles[i]
			}
		}
	}

	results := make([]any, len(roles))
	for i, role := range roles {
		results[i] = role
	}
	writeListing(w, r, results)
}

func (s *Server) handleEmployeeBulkUpload(w http.ResponseWriter, r *http.Request) {
	rows, err := readUploadRows(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := requestUser(r)

	created := 0
	var errorDetails []string

	s.data.mu.Lock()
	for i, row := range rows {
		name := row["name"]
		companyID, _ := strconv.ParseInt(row["company"], 10, 64)
		if companyID == 0 {
			companyID = user.CompanyID
		}
		if name == "" || companyID == 0 {
			errorDetails = append(errorDetails, strconv.Itoa(i+1)+": name and company are required")
			continue
		}
		if !canWriteEmployee(user, companyID) {
			errorDetails = append(errorDetails, strconv.Itoa(i+1)+": not permitted for this company")
			continue
		}
		company, ok := s.data.companies[companyID]
		if !ok {
			errorDetails = append(errorDetails, strconv.Itoa(i+1)+": company not found")
			continue
		}
		employee := &client.Employee{
			Name:       name,
			EmployeeID: row["employee_id"],
			CompanyID:  companyID,
		}
		if role := row["role"]; role != "" {
			started := row["date_started"]
			if started == "" {
				started = time.Now().Format("2006-01-02")
			}
			employee.Roles = []client.EmployeeRole{{Role: role, DateStarted: started, Duties: row["duties"]}}
		}
		s.data.addEmployee(employee)
		company.NumberOfEmployees++
		created++
	}
	s.data.mu.Unlock()

	writeJSON(w, http.StatusOK, client.BulkUploadResult{
		Success:      true,
		Processed:    len(rows),
		Created:      created,
		Errors:       len(errorDetails),
		ErrorDetails: errorDetails,
	})
}
