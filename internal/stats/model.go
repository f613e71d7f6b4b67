package stats

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/complaint/domain"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Overview is the dashboard headline for one jurisdiction
type Overview struct {
	Total    int                   `json:"total"`
	ByStatus map[domain.Status]int `json:"by_status"`

	// Month-over-month volume. ChangePct is 0 when the previous month
	// had no complaints.
	ThisMonth int     `json:"this_month"`
	LastMonth int     `json:"last_month"`
	ChangePct float64 `json:"change_pct"`

	ActiveUsers int `json:"active_users"`
}

// RecentComplaint is one row of the dashboard's recent list
type RecentComplaint struct {
	ID        types.ID        `json:"id"`
	Title     string          `json:"title"`
	Status    domain.Status   `json:"status"`
	AreaType  domain.AreaType `json:"area_type"`
	CreatedAt time.Time       `json:"created_at"`
}

// MyStats is an employee's view of their own queue
type MyStats struct {
	ByStatus map[domain.Status]int `json:"by_status"`
	Total    int                   `json:"total"`
	Unseen   int                   `json:"unseen"`
}

// EmployeeStats aggregates workload per field employee
type EmployeeStats struct {
	UserID    types.ID `json:"user_id"`
	FullName  string   `json:"full_name"`
	Role      string   `json:"role"`
	Assigned  int      `json:"assigned"`
	InReview  int      `json:"in_review"`
	Completed int      `json:"completed"`
}
