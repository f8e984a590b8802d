package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tawa-dev/TalentVerify/internal/client"
)

func employeeCmd(build func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Browse and manage employment records",
	}
	cmd.AddCommand(
		employeeListCmd(build),
		employeeGetCmd(build),
		employeeCreateCmd(build),
		employeeDeleteCmd(build),
		employeeHistoryCmd(build),
		employeeUploadCmd(build),
	)
	return cmd
}

func employeeListCmd(build func() *app) *cobra.Command {
	var params client.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees visible to the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			page, err := a.api.ListEmployees(ctx, params)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMPLOYEE ID\tCOMPANY\tDEPARTMENT")
			for _, employee := range page.Results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					employee.ID, employee.Name, employee.EmployeeID,
					employee.CompanyName, employee.CurrentDepartment)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d employees\n", page.Count)
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number (omit for the full listing)")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 0, "Results per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search by name, employee ID or company")
	return cmd
}

func employeeGetCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one employment record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			employee, err := a.api.GetEmployee(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("ID:          %d\n", employee.ID)
			fmt.Printf("Name:        %s\n", employee.Name)
			fmt.Printf("Employee ID: %s\n", employee.EmployeeID)
			fmt.Printf("Company:     %s\n", employee.CompanyName)
			fmt.Printf("Department:  %s\n", employee.CurrentDepartment)
			printRoles(employee.Roles)
			return nil
		},
	}
}

func employeeCreateCmd(build func() *app) *cobra.Command {
	var (
		input        client.EmployeeInput
		departmentID int64
		role         string
		dateStarted  string
		duties       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employment record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" {
				input.Roles = []client.EmployeeRole{{
					DepartmentID: departmentID,
					Role:         role,
					DateStarted:  dateStarted,
					Duties:       duties,
				}}
			}

			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			employee, err := a.api.CreateEmployee(ctx, input)
			if err != nil {
				return err
			}
			fmt.Printf("Created employee %d: %s\n", employee.ID, employee.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&input.EmployeeID, "employee-id", "", "Company-assigned employee ID")
	cmd.Flags().Int64Var(&input.CompanyID, "company", 0, "Company ID")
	cmd.Flags().Int64Var(&departmentID, "department", 0, "Department ID for the initial role")
	cmd.Flags().StringVar(&role, "role", "", "Initial role title")
	cmd.Flags().StringVar(&dateStarted, "date-started", "", "Role start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&duties, "duties", "", "Role duties")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func employeeDeleteCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employment record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}
			if err := a.api.DeleteEmployee(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted employee %d\n", id)
			return nil
		},
	}
}

func employeeHistoryCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show an employee's role history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			history, err := a.api.EmployeeHistory(ctx, id)
			if err != nil {
				return err
			}
			printRoles(history)
			return nil
		},
	}
}

func employeeUploadCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Bulk upload employment records from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			result, err := a.api.BulkUploadEmployees(ctx, args[0], file)
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d rows: %d created, %d errors\n",
				result.Processed, result.Created, result.Errors)
			for _, detail := range result.ErrorDetails {
				fmt.Println("  " + detail)
			}
			return nil
		},
	}
}

func printRoles(roles []client.EmployeeRole) {
	if len(roles) == 0 {
		return
	}
	fmt.Println("History:")
	for _, role := range roles {
		end := "present"
		if role.DateLeft != nil {
			end = *role.DateLeft
		}
		fmt.Printf("  %s - %s  %s", role.DateStarted, end, role.Role)
		if role.DepartmentName != "" {
			fmt.Printf(" (%s)", role.DepartmentName)
		}
		fmt.Println()
	}
}
