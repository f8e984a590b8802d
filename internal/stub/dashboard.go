package stub

import (
	"net/http"
	"time"

	"github.com/Tawa-dev/TalentVerify/internal/client"
	"github.com/Tawa-dev/TalentVerify/internal/token"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if token.NormalizeRole(user.Role) != token.RoleTalentVerifyStaff {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	lastWeek := time.Now().Add(-7 * 24 * time.Hour)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	recent := 0
	var activity []client.ActivityEntry
	for key, created := range s.data.createdAt {
		if created.Before(lastWeek) {
			continue
		}
		recent++
		activity = append(activity, client.ActivityEntry{
			Action:    "Record Added",
			Details:   key,
			Timestamp: created.Format("2006-01-02 15:04"),
		})
	}

	writeJSON(w, http.StatusOK, client.AdminStats{
		TotalCompanies: len(s.data.companies),
		TotalEmployees: len(s.data.employees),
		RecentUploads:  recent,
		RecentActivity: activity,
	})
}

func (s *Server) handleCompanyStats(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user.CompanyID == 0 {
		writeError(w, http.StatusBadRequest, "No company associated")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	total := 0
	counts := make(map[string]int)
	for _, employee := range s.data.employees {
		if employee.CompanyID != user.CompanyID {
			continue
		}
		total++
		for _, role := range employee.Roles {
			if role.DateLeft == nil {
				counts[role.DepartmentName]++
			}
		}
	}

	var departments []client.DepartmentStat
	for _, dept := range s.data.departmentsOf(user.CompanyID) {
		departments = append(departments, client.DepartmentStat{
			Name:          dept.Name,
			EmployeeCount: counts[dept.Name],
		})
	}

	writeJSON(w, http.StatusOK, client.CompanyStats{
		TotalEmployees: total,
		Departments:    departments,
		RecentUpdates:  total,
	})
}
