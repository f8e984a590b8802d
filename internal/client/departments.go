package client

import (
	"context"
	"encoding/json"
)

// ListDepartments fetches departments, optionally filtered with params.
func (c *Client) ListDepartments(ctx context.Context, params ListParams) ([]Department, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, "/companies/departments/"+params.query(), &raw); err != nil {
		return nil, err
	}
	var envelope struct {
		Results []Department `json:"results"`
		Count   int          `json:"count"`
	}
	var results []Department
	if err := decodePage(raw, &envelope, &results, &envelope.Count); err != nil {
		return nil, err
	}
	if results != nil {
		return results, nil
	}
	return envelope.Results, nil
}

// CreateDepartment adds a department to a company.
func (c *Client) CreateDepartment(ctx context.Context, department Department) (*Department, error) {
	var out Department
	if err := c.Post(ctx, "/companies/departments/", department, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
