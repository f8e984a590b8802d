package stub

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tawa-dev/TalentVerify/internal/client"
)

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	companies := s.data.companyList()
	s.data.mu.Unlock()

	query := r.URL.Query()
	if search := strings.ToLower(query.Get("search")); search != "" {
		companies = filterCompanies(companies, search)
	}
	if name := strings.ToLower(query.Get("name")); name != "" {
		companies = filterCompanies(companies, name)
	}
	if ordering := query.Get("ordering"); ordering != "" {
		sortCompanies(companies, ordering)
	}

	results := make([]any, len(companies))
	for i, company := range companies {
		results[i] = company
	}
	writeListing(w, r, results)
}

func filterCompanies(companies []client.Company, needle string) []client.Company {
	var out []client.Company
	for _, company := range companies {
		if strings.Contains(strings.ToLower(company.Name), needle) ||
			strings.Contains(strings.ToLower(company.RegistrationNum), needle) {
			out = append(out, company)
		}
	}
	return out
}

func sortCompanies(companies []client.Company, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	if field != "name" {
		return
	}
	sort.SliceStable(companies, func(i, j int) bool {
		if desc {
			return companies[i].Name > companies[j].Name
		}
		return companies[i].Name < companies[j].Name
	})
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	company, ok := s.data.companies[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	out := *company
	out.Departments = s.data.departmentsOf(id)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var company client.Company
	if err := decodeJSON(r, &company); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if company.Name == "" || company.RegistrationNum == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"name":                {"This field is required."},
			"registration_number": {"This field is required."},
		})
		return
	}

	s.data.mu.Lock()
	company.ID = s.data.id()
	s.data.companies[company.ID] = &company
	s.data.mu.Unlock()

	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleCreateCompanyWithUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Company      client.Company `json:"company"`
		Departments  []string       `json:"departments"`
		UserEmail    string         `json:"user_email"`
		UserPassword string         `json:"user_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Company.Name == "" || req.UserEmail == "" {
		writeError(w, http.StatusBadRequest, "Failed to create company: name and user_email are required")
		return
	}

	s.data.mu.Lock()
	company := req.Company
	company.ID = s.data.id()
	s.data.companies[company.ID] = &company
	for _, name := range req.Departments {
		dept := &client.Department{ID: s.data.id(), Name: name, CompanyID: company.ID}
		s.data.departments[dept.ID] = dept
	}
	user := &userRecord{
		ID:        s.data.id(),
		Email:     strings.ToLower(req.UserEmail),
		Password:  req.UserPassword,
		Role:      "company_admin",
		CompanyID: company.ID,
	}
	s.data.users[user.ID] = user
	company.Departments = s.data.departmentsOf(company.ID)
	s.data.mu.Unlock()

	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var company client.Company
	if err := decodeJSON(r, &company); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.companies[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	company.ID = id
	s.data.companies[id] = &company
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleUpdateWithDepartments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var req struct {
		Company     client.Company `json:"company"`
		Departments []string       `json:"departments"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.companies[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	company := req.Company
	company.ID = id
	s.data.companies[id] = &company

	for deptID, dept := range s.data.departments {
		if dept.CompanyID == id {
			delete(s.data.departments, deptID)
		}
	}
	for _, name := range req.Departments {
		dept := &client.Department{ID: s.data.id(), Name: name, CompanyID: id}
		s.data.departments[dept.ID] = dept
	}
	company.Departments = s.data.departmentsOf(id)
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handlePatchCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	company, ok := s.data.companies[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if name, ok := fields["name"].(string); ok {
		company.Name = name
	}
	if address, ok := fields["address"].(string); ok {
		company.Address = address
	}
	if contact, ok := fields["contact_person"].(string); ok {
		company.ContactPerson = contact
	}
	if phone, ok := fields["contact_phone"].(string); ok {
		company.ContactPhone = phone
	}
	if email, ok := fields["email_address"].(string); ok {
		company.EmailAddress = email
	}
	writeJSON(w, http.StatusOK, *company)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.companies[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.data.companies, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	rows, err := readUploadRows(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, skipped := 0, 0
	var errorDetails []string

	s.data.mu.Lock()
	for i, row := range rows {
		name, regnum := row["name"], row["registration_number"]
		if name == "" || regnum == "" {
			errorDetails = append(errorDetails, fmt.Sprintf("Row %d: name and registration_number are required", i+1))
			continue
		}
		if s.companyByRegnumLocked(regnum) != nil {
			skipped++
			errorDetails = append(errorDetails, fmt.Sprintf("Row %d: Company with registration number '%s' already exists. Use bulk_edit to update existing companies.", i+1, regnum))
			continue
		}
		company := &client.Company{
			ID:               s.data.id(),
			Name:             name,
			RegistrationNum:  regnum,
			RegistrationDate: row["registration_date"],
			Address:          row["address"],
			ContactPerson:    row["contact_person"],
			EmailAddress:     row["email_address"],
		}
		s.data.companies[company.ID] = company
		created++
	}
	s.data.mu.Unlock()

	writeJSON(w, http.StatusOK, client.BulkUploadResult{
		Success:          true,
		Processed:        len(rows),
		CompaniesCreated: created,
		SkippedExisting:  skipped,
		Errors:           len(errorDetails) - skipped,
		ErrorDetails:     errorDetails,
	})
}

func (s *Server) handleBulkEdit(w http.ResponseWriter, r *http.Request) {
	rows, err := readUploadRows(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated := 0
	var errorDetails []string

	s.data.mu.Lock()
	for i, row := range rows {
		regnum := row["registration_number"]
		company := s.companyByRegnumLocked(regnum)
		if company == nil {
			errorDetails = append(errorDetails, fmt.Sprintf("Row %d: no company with registration number '%s'", i+1, regnum))
			continue
		}
		if name := row["name"]; name != "" {
			company.Name = name
		}
		if address := row["address"]; address != "" {
			company.Address = address
		}
		if contact := row["contact_person"]; contact != "" {
			company.ContactPerson = contact
		}
		updated++
	}
	s.data.mu.Unlock()

	writeJSON(w, http.StatusOK, client.BulkEditResult{
		Success:      true,
		Processed:    len(rows),
		Updated:      updated,
		Errors:       len(errorDetails),
		ErrorDetails: errorDetails,
	})
}

func (s *Server) companyByRegnumLocked(regnum string) *client.Company {
	for _, company := range s.data.companies {
		if company.RegistrationNum == regnum {
			return company
		}
	}
	return nil
}

// readUploadRows reads the multipart "file" field as CSV with a header
// row, returning one column-name-to-value map per data row.
func readUploadRows(r *http.Request) ([]map[string]string, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("No file provided")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("Unsupported file type. Please upload CSV, TXT or Excel file.")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Failed to process file: %v", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	s.data.mu.Lock()
	departments := make([]client.Department, 0, len(s.data.departments))
	for _, dept := range s.data.departments {
		departments = append(departments, *dept)
	}
	s.data.mu.Unlock()
	sort.Slice(departments, func(i, j int) bool { return departments[i].ID < departments[j].ID })

	results := make([]any, len(departments))
	for i, dept := range departments {
		results[i] = dept
	}
	writeListing(w, r, results)
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dept client.Department
	if err := decodeJSON(r, &dept); err != nil || dept.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.companies[dept.CompanyID]; !ok {
		writeError(w, http.StatusBadRequest, "company not found")
		return
	}
	dept.ID = s.data.id()
	s.data.departments[dept.ID] = &dept
	writeJSON(w, http.StatusCreated, dept)
}

// writeListing answers with a DRF pagination envelope when a page
// parameter is present, and a bare array otherwise, matching the dual
// behavior clients see from the real backend.
func writeListing(w http.ResponseWriter, r *http.Request, results []any) {
	query := r.URL.Query()
	if query.Get("page") == "" {
		writeJSON(w, http.StatusOK, results)
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}

	count := len(results)
	start := (page - 1) * pageSize
	if start > count {
		start = count
	}
	end := start + pageSize
	if end > count {
		end = count
	}

	var next, previous *string
	if end < count {
		next = pageURL(r, page+1)
	}
	if page > 1 {
		previous = pageURL(r, page-1)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    count,
		"next":     next,
		"previous": previous,
		"results":  results[start:end],
	})
}

func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()
	s := u.String()
	return &s
}
