package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// EmployeePage is one page of employees.
type EmployeePage struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []Employee `json:"results"`
}

// ListEmployees fetches employees, handling both paginated and bare-array
// responses.
func (c *Client) ListEmployees(ctx context.Context, params ListParams) (*EmployeePage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, "/employees/"+params.query(), &raw); err != nil {
		return nil, err
	}
	page := &EmployeePage{}
	if err := decodePage(raw, page, &page.Results, &page.Count); err != nil {
		return nil, err
	}
	return page, nil
}

// GetEmployee fetches a single employee with their role history.
func (c *Client) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	var out Employee
	if err := c.Get(ctx, fmt.Sprintf("/employees/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EmployeeInput creates or replaces an employee along with their role
// entries.
type EmployeeInput struct {
	Name       string         `json:"name"`
	EmployeeID string         `json:"employee_id,omitempty"`
	CompanyID  int64          `json:"company"`
	Roles      []EmployeeRole `json:"roles,omitempty"`
}

// CreateEmployee creates an employment record.
func (c *Client) CreateEmployee(ctx context.Context, input EmployeeInput) (*Employee, error) {
	var out Employee
	if err := c.Post(ctx, "/employees/", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEmployee replaces an employment record.
func (c *Client) UpdateEmployee(ctx context.Context, id int64, input EmployeeInput) (*Employee, error) {
	var out Employee
	if err := c.Put(ctx, fmt.Sprintf("/employees/%d/", id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchEmployee applies a partial update.
func (c *Client) PatchEmployee(ctx context.Context, id int64, fields map[string]any) (*Employee, error) {
	var out Employee
	if err := c.Patch(ctx, fmt.Sprintf("/employees/%d/", id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEmployee removes an employment record.
func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/employees/%d/", id))
}

// EmployeeHistory fetches the role history for one employee, oldest first.
func (c *Client) EmployeeHistory(ctx context.Context, employeeID int64) ([]EmployeeRole, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, fmt.Sprintf("/employees/roles/?employee=%d", employeeID), &raw); err != nil {
		return nil, err
	}
	var envelope struct {
		Results []EmployeeRole `json:"results"`
		Count   int            `json:"count"`
	}
	var results []EmployeeRole
	if err := decodePage(raw, &envelope, &results, &envelope.Count); err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}
	return envelope.Results, nil
}

// BulkUploadEmployees posts a CSV/Excel file of employment records.
func (c *Client) BulkUploadEmployees(ctx context.Context, filename string, file io.Reader) (*BulkUploadResult, error) {
	var out BulkUploadResult
	if err := c.PostFile(ctx, "/employees/bulk_upload/", filename, file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
