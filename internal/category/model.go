package category

import (
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Category labels complaints for filtering and reporting
type Category struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name"`
}
