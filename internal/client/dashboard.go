package client

import "context"

// AdminDashboard fetches the platform-wide statistics shown to
// verification staff.
func (c *Client) AdminDashboard(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.Get(ctx, "/dashboard/admin-stats/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyDashboard fetches the statistics scoped to the caller's company.
func (c *Client) CompanyDashboard(ctx context.Context) (*CompanyStats, error) {
	var out CompanyStats
	if err := c.Get(ctx, "/dashboard/company-stats/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
