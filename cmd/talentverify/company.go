package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Tawa-dev/TalentVerify/internal/client"
)

func companyCmd(build func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Browse and manage the company directory",
	}
	cmd.AddCommand(
		companyListCmd(build),
		companyGetCmd(build),
		companyCreateCmd(build),
		companyUpdateCmd(build),
		companyDeleteCmd(build),
		companyUploadCmd(build),
		companyBulkEditCmd(build),
		departmentListCmd(build),
		departmentAddCmd(build),
	)
	return cmd
}

func companyListCmd(build func() *app) *cobra.Command {
	var params client.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			page, err := a.api.ListCompanies(ctx, params)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREG NUMBER\tEMPLOYEES\tCONTACT")
			for _, company := range page.Results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					company.ID, company.Name, company.RegistrationNum,
					company.NumberOfEmployees, company.ContactPerson)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if params.Page > 0 {
				fmt.Printf("\n%d companies, page %d of %d\n", page.Count, params.Page, page.TotalPages)
			} else {
				fmt.Printf("\n%d companies\n", page.Count)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number (omit for the full listing)")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 0, "Results per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search by name or registration number")
	cmd.Flags().StringVar(&params.Ordering, "ordering", "", "Sort field, prefix with - for descending")
	return cmd
}

func companyGetCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one company",
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

			company, err := a.api.GetCompany(ctx, id)
			if err != nil {
				return err
			}
			printCompany(company)
			return nil
		},
	}
}

func companyCreateCmd(build func() *app) *cobra.Command {
	var (
		company      client.Company
		departments  []string
		userEmail    string
		userPassword string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company (verification staff only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			var created *client.Company
			var err error
			if userEmail != "" {
				created, err = a.api.CreateCompanyWithUser(ctx, client.CompanyWithUserInput{
					Company:      company,
					Departments:  departments,
					UserEmail:    userEmail,
					UserPassword: userPassword,
				})
			} else {
				created, err = a.api.CreateCompany(ctx, company)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Created company %d: %s\n", created.ID, created.Name)
			return nil
		},
	}
	companyFlags(cmd, &company)
	cmd.Flags().StringSliceVar(&departments, "department", nil, "Department to create with the company (repeatable)")
	cmd.Flags().StringVar(&userEmail, "admin-email", "", "Also provision a company admin account")
	cmd.Flags().StringVar(&userPassword, "admin-password", "", "Password for the provisioned admin")
	return cmd
}

func companyUpdateCmd(build func() *app) *cobra.Command {
	var (
		company     client.Company
		departments []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a company record (verification staff only)",
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

			var updated *client.Company
			if cmd.Flags().Changed("department") {
				updated, err = a.api.UpdateCompanyWithDepartments(ctx, id, company, departments)
			} else {
				updated, err = a.api.UpdateCompany(ctx, id, company)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Updated company %d: %s\n", updated.ID, updated.Name)
			return nil
		},
	}
	companyFlags(cmd, &company)
	cmd.Flags().StringSliceVar(&departments, "department", nil, "Replacement department set (repeatable)")
	return cmd
}

func companyDeleteCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company (verification staff only)",
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
			if err := a.api.DeleteCompany(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted company %d\n", id)
			return nil
		},
	}
}

func companyUploadCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Bulk upload companies from a CSV file",
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

			result, err := a.api.BulkUploadCompanies(ctx, args[0], file)
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d rows: %d created, %d skipped, %d errors\n",
				result.Processed, result.CompaniesCreated, result.SkippedExisting, result.Errors)
			for _, detail := range result.ErrorDetails {
				fmt.Println("  " + detail)
			}
			return nil
		},
	}
}

func companyBulkEditCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-edit <file>",
		Short: "Bulk edit existing companies from a CSV file",
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

			result, err := a.api.BulkEditCompanies(ctx, args[0], file)
			if err != nil {
				return err
			}
			fmt.Printf("Processed %d rows: %d updated, %d errors\n",
				result.Processed, result.Updated, result.Errors)
			for _, detail := range result.ErrorDetails {
				fmt.Println("  " + detail)
			}
			return nil
		},
	}
}

func departmentListCmd(build func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "List departments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			departments, err := a.api.ListDepartments(ctx, client.ListParams{})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOMPANY")
			for _, dept := range departments {
				fmt.Fprintf(w, "%d\t%s\t%d\n", dept.ID, dept.Name, dept.CompanyID)
			}
			return w.Flush()
		},
	}
}

func departmentAddCmd(build func() *app) *cobra.Command {
	var companyID int64

	cmd := &cobra.Command{
		Use:   "add-department <name>",
		Short: "Add a department to a company (verification staff only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a := build()
			if err := a.signIn(ctx); err != nil {
				return err
			}

			dept, err := a.api.CreateDepartment(ctx, client.Department{
				Name:      args[0],
				CompanyID: companyID,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created department %d: %s\n", dept.ID, dept.Name)
			return nil
		},
	}
	cmd.Flags().Int64Var(&companyID, "company", 0, "Company ID")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func companyFlags(cmd *cobra.Command, company *client.Company) {
	cmd.Flags().StringVar(&company.Name, "name", "", "Company name")
	cmd.Flags().StringVar(&company.RegistrationNum, "registration-number", "", "Registration number")
	cmd.Flags().StringVar(&company.RegistrationDate, "registration-date", "", "Registration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&company.Address, "address", "", "Address")
	cmd.Flags().StringVar(&company.ContactPerson, "contact-person", "", "Contact person")
	cmd.Flags().StringVar(&company.ContactPhone, "contact-phone", "", "Contact phone")
	cmd.Flags().StringVar(&company.EmailAddress, "email", "", "Contact email")
}

func printCompany(company *client.Company) {
	fmt.Printf("ID:            %d\n", company.ID)
	fmt.Printf("Name:          %s\n", company.Name)
	fmt.Printf("Registration:  %s (%s)\n", company.RegistrationNum, company.RegistrationDate)
	fmt.Printf("Address:       %s\n", company.Address)
	fmt.Printf("Contact:       %s %s\n", company.ContactPerson, company.ContactPhone)
	fmt.Printf("Email:         %s\n", company.EmailAddress)
	fmt.Printf("Employees:     %d\n", company.NumberOfEmployees)
	if len(company.Departments) > 0 {
		names := make([]string, len(company.Departments))
		for i, dept := range company.Departments {
			names[i] = dept.Name
		}
		fmt.Printf("Departments:   %s\n", strings.Join(names, ", "))
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
