package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func dashboardCmd(build func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform or company statistics",
	}
	cmd.AddCommand(dashboardAdminCmd(build), dashboardCompanyCmd(build))
	return cmd
}

func dashboardAdminCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Platform-wide statistics (verification staff only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			stats, err := a.api.AdminDashboard(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Companies:      %d\n", stats.TotalCompanies)
			fmt.Printf("Employees:      %d\n", stats.TotalEmployees)
			fmt.Printf("Recent uploads: %d\n", stats.RecentUploads)
			if len(stats.RecentActivity) > 0 {
				fmt.Println("Recent activity:")
				for _, entry := range stats.RecentActivity {
					fmt.Printf("  %s  %s: %s\n", entry.Timestamp, entry.Action, entry.Details)
				}
			}
			return nil
		},
	}
}

func dashboardCompanyCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "company",
		Short: "Statistics for the signed-in account's company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			stats, err := a.api.CompanyDashboard(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Employees:      %d\n", stats.TotalEmployees)
			fmt.Printf("Recent updates: %d\n", stats.RecentUpdates)
			if len(stats.Departments) > 0 {
				fmt.Println("Departments:")
				for _, dept := range stats.Departments {
					fmt.Printf("  %-20s %d\n", dept.Name, dept.EmployeeCount)
				}
			}
			return nil
		},
	}
}
