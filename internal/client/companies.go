package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// ListParams are the pagination, search and filter knobs accepted by the
// list endpoints.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
	Name     string
}

func (p ListParams) query() string {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Ordering != "" {
		values.Set("ordering", p.Ordering)
	}
	if p.Name != "" {
		values.Set("name", p.Name)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// CompanyPage is one page of companies. Next and Previous are the
// backend's continuation URLs when the response was paginated.
type CompanyPage struct {
	Count      int       `json:"count"`
	Next       string    `json:"next"`
	Previous   string    `json:"previous"`
	Results    []Company `json:"results"`
	TotalPages int       `json:"-"`
}

// ListCompanies fetches companies. The backend answers with either a DRF
// pagination envelope or a bare array depending on configuration; both
// shapes are handled.
func (c *Client) ListCompanies(ctx context.Context, params ListParams) (*CompanyPage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, "/companies/"+params.query(), &raw); err != nil {
		return nil, err
	}
	page := &CompanyPage{}
	if err := decodePage(raw, page, &page.Results, &page.Count); err != nil {
		return nil, err
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page.TotalPages = (page.Count + pageSize - 1) / pageSize
	return page, nil
}

// SearchCompanies is ListCompanies with the query in the search filter.
func (c *Client) SearchCompanies(ctx context.Context, query string, params ListParams) (*CompanyPage, error) {
	params.Search = query
	return c.ListCompanies(ctx, params)
}

// GetCompany fetches a single company by ID.
func (c *Client) GetCompany(ctx context.Context, id int64) (*Company, error) {
	var out Company
	if err := c.Get(ctx, fmt.Sprintf("/companies/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCompany creates a company record.
func (c *Client) CreateCompany(ctx context.Context, company Company) (*Company, error) {
	var out Company
	if err := c.Post(ctx, "/companies/", company, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyWithUserInput creates a company together with its first admin
// account and departments in one transaction.
type CompanyWithUserInput struct {
	Company      Company  `json:"company"`
	Departments  []string `json:"departments,omitempty"`
	UserEmail    string   `json:"user_email"`
	UserPassword string   `json:"user_password"`
}

// CreateCompanyWithUser provisions a company plus its admin account.
func (c *Client) CreateCompanyWithUser(ctx context.Context, input CompanyWithUserInput) (*Company, error) {
	var out Company
	if err := c.Post(ctx, "/companies/create_user_and_company/", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCompany replaces a company record.
func (c *Client) UpdateCompany(ctx context.Context, id int64, company Company) (*Company, error) {
	var out Company
	if err := c.Put(ctx, fmt.Sprintf("/companies/%d/", id), company, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCompanyWithDepartments replaces a company and its department list.
func (c *Client) UpdateCompanyWithDepartments(ctx context.Context, id int64, company Company, departments []string) (*Company, error) {
	in := map[string]any{
		"company":     company,
		"departments": departments,
	}
	var out Company
	if err := c.Put(ctx, fmt.Sprintf("/companies/%d/update_with_departments/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchCompany applies a partial update.
func (c *Client) PatchCompany(ctx context.Context, id int64, fields map[string]any) (*Company, error) {
	var out Company
	if err := c.Patch(ctx, fmt.Sprintf("/companies/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCompany removes a company.
func (c *Client) DeleteCompany(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/companies/%d/", id))
}

// BulkUploadCompanies posts a CSV/Excel file of new companies. The file is
// passed through untouched; parsing and validation happen server-side.
func (c *Client) BulkUploadCompanies(ctx context.Context, filename string, file io.Reader) (*BulkUploadResult, error) {
	var out BulkUploadResult
	if err := c.PostFile(ctx, "/companies/bulk_upload/", filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkEditCompanies posts a file of updates to existing companies.
func (c *Client) BulkEditCompanies(ctx context.Context, filename string, file io.Reader) (*BulkEditResult, error) {
	var out BulkEditResult
	if err := c.PostFile(ctx, "/companies/bulk_edit/", filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyOverviewStats walks the full company listing and aggregates the
// headline numbers shown on the verification dashboard.
func (c *Client) CompanyOverviewStats(ctx context.Context) (*CompanyOverview, error) {
	page, err := c.ListCompanies(ctx, ListParams{})
	if err != nil {
		return nil, err
	}

	overview := &CompanyOverview{TotalCompanies: page.Count}
	for _, company := range page.Results {
		overview.TotalEmployees += company.NumberOfEmployees
		if company.NumberOfEmployees > 0 {
			overview.CompaniesWithEmployees++
		}
	}
	if overview.TotalCompanies > 0 {
		overview.AverageEmployeesPerCompany = overview.TotalEmployees / overview.TotalCompanies
	}
	return overview, nil
}

// decodePage accepts either a DRF pagination envelope or a bare array.
func decodePage(raw json.RawMessage, envelope any, results any, count *int) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, results); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		*count = sliceLen(results)
		return nil
	}
	if err := json.Unmarshal(trimmed, envelope); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}
	return nil
}

func sliceLen(results any) int {
	switch v := results.(type) {
	case *[]Company:
		return len(*v)
	case *[]Employee:
		return len(*v)
	case *[]EmployeeRole:
		return len(*v)
	case *[]Department:
		return len(*v)
	default:
		return 0
	}
}
