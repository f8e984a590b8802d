package stub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// userRecord is an account known to the stub. Passwords are plaintext;
// this server exists for development and tests only.
type userRecord struct {
	ID        int64
	Email     string
	Password  string
	Role      string
	CompanyID int64
}

// dataset is the in-memory state behind the stub API.
type dataset struct {
	mu sync.Mutex

	users       map[int64]*userRecord
	companies   map[int64]*client.Company
	departments map[int64]*client.Department
	employees   map[int64]*client.Employee

	nextID int64

	// createdAt backs the "recent activity" dashboards.
	createdAt map[string]time.Time
}

func newDataset() *dataset {
	return &dataset{
		users:       make(map[int64]*userRecord),
		companies:   make(map[int64]*client.Company),
		departments: make(map[int64]*client.Department),
		employees:   make(map[int64]*client.Employee),
		createdAt:   make(map[string]time.Time),
		nextID:      1,
	}
}

func (d *dataset) id() int64 {
	id := d.nextID
	d.nextID++
	return id
}

func (d *dataset) userByEmail(email string) *userRecord {
	for _, user := range d.users {
		if strings.EqualFold(user.Email, email) {
			return user
		}
	}
	return nil
}

func (d *dataset) companyList() []client.Company {
	out := make([]client.Company, 0, len(d.companies))
	for _, company := range d.companies {
		c := *company
		c.Departments = d.departmentsOf(c.ID)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *dataset) departmentsOf(companyID int64) []client.Department {
	var out []client.Department
	for _, dept := range d.departments {
		if dept.CompanyID == companyID {
			out = append(out, *dept)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *dataset) employeeList() []client.Employee {
	out := make([]client.Employee, 0, len(d.employees))
	for _, employee := range d.employees {
		out = append(out, *employee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// seed loads the demo accounts and a small company directory so every
// role has something to look at out of the box.
func (d *dataset) seed() {
	acme := &client.Company{
		ID:                d.id(),
		Name:              "Acme Holdings",
		RegistrationNum:   "REG-1001",
		RegistrationDate:  "2015-03-02",
		Address:           "12 Samora Machel Ave, Harare",
		ContactPerson:     "T. Moyo",
		EmailAddress:      "info@acme.example",
		NumberOfEmployees: 2,
	}
	d.companies[acme.ID] = acme
	d.createdAt["company:acme"] = time.Now().Add(-48 * time.Hour)

	eng := &client.Department{ID: d.id(), Name: "Engineering", CompanyID: acme.ID}
	ops := &client.Department{ID: d.id(), Name: "Operations", CompanyID: acme.ID}
	d.departments[eng.ID] = eng
	d.departments[ops.ID] = ops

	left := "2021-06-30"
	d.addEmployee(&client.Employee{
		Name:       "Rudo Chikafu",
		EmployeeID: "EMP-001",
		CompanyID:  acme.ID,
		Roles: []client.EmployeeRole{
			{DepartmentID: ops.ID, DepartmentName: ops.Name, Role: "Clerk", DateStarted: "2019-01-15", DateLeft: &left},
			{DepartmentID: eng.ID, DepartmentName: eng.Name, Role: "Engineer", DateStarted: "2021-07-01"},
		},
	})
	d.addEmployee(&client.Employee{
		Name:       "Blessing Ncube",
		EmployeeID: "EMP-002",
		CompanyID:  acme.ID,
		Roles: []client.EmployeeRole{
			{DepartmentID: eng.ID, DepartmentName: eng.Name, Role: "Senior Engineer", DateStarted: "2018-04-09"},
		},
	})

	for _, user := range []*userRecord{
		{Email: "staff@talentverify.example", Password: "verify-staff", Role: string(token.RoleTalentVerifyStaff)},
		{Email: "admin@acme.example", Password: "acme-admin", Role: string(token.RoleCompanyAdmin), CompanyID: acme.ID},
		{Email: "hr@acme.example", Password: "acme-staff", Role: string(token.RoleCompanyStaff), CompanyID: acme.ID},
		{Email: "viewer@example.com", Password: "viewer", Role: string(token.RoleGeneralUser)},
	} {
		user.ID = d.id()
		d.users[user.ID] = user
	}
}

func (d *dataset) addEmployee(employee *client.Employee) {
	employee.ID = d.id()
	if company, ok := d.companies[employee.CompanyID]; ok {
		employee.CompanyName = company.Name
	}
	for i := range employee.Roles {
		employee.Roles[i].ID = d.id()
		if employee.Roles[i].DateLeft == nil {
			employee.CurrentDepartment = employee.Roles[i].DepartmentName
		}
	}
	d.employees[employee.ID] = employee
	d.createdAt["employee:"+employee.Name] = time.Now()
}
