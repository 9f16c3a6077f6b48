// Package directory implements the admin client list: filter, sort and
// paginate over the full in-memory collections.
package directory

import (
	"sort"
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
)

// PageSizes are the accepted page sizes.
var PageSizes = []int{20, 50, 100}

// DefaultPageSize is used when the request names none or an invalid one.
const DefaultPageSize = 20

const (
	SortName      = "name"
	SortPlan      = "plan"
	SortStatus    = "status"
	SortCreatedAt = "createdAt"
)

// Rows joins clients with their profile counts.
func Rows(clients []domain.Client, profiles []domain.Profile) []domain.ClientRow {
	counts := make(map[string]int, len(clients))
	for _, p := range profiles {
		counts[p.ClientID]++
	}
	rows := make([]domain.ClientRow, len(clients))
	for i, c := range clients {
		rows[i] = domain.ClientRow{Client: c, ProfileCount: counts[c.ID]}
	}
	return rows
}

// Filter keeps rows matching the search substring (name, email, slug), the
// plan and the active status.
func Filter(rows []domain.ClientRow, q domain.DirectoryQuery) []domain.ClientRow {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.ClientRow, 0, len(rows))
	for _, r := range rows {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Email), search) &&
			!strings.Contains(strings.ToLower(r.Slug), search) {
			continue
		}
		if q.Plan != "" && r.Plan != q.Plan {
			continue
		}
		switch q.Status {
		case "active":
			if !r.IsActive {
				continue
			}
		case "inactive":
			if r.IsActive {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Sort orders rows in place. Ties keep their input order.
func Sort(rows []domain.ClientRow, by string, desc bool) {
	less := func(a, b domain.ClientRow) bool {
		switch by {
		case SortPlan:
			return plans.Rank(a.Plan) < plans.Rank(b.Plan)
		case SortStatus:
			return a.IsActive && !b.IsActive
		case SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// NormalizePageSize maps any size to one of PageSizes.
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return s
		}
	}
	return DefaultPageSize
}

// Paginate slices one 1-based page.
func Paginate[T any](items []T, page, size int) domain.ListResponse[T] {
	size = NormalizePageSize(size)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return domain.ListResponse[T]{
		Data:     append([]T{}, items[start:end]...),
		Total:    len(items),
		Page:     page,
		PageSize: size,
		HasMore:  end < len(items),
	}
}

// Query runs filter → sort → paginate.
func Query(rows []domain.ClientRow, q domain.DirectoryQuery) domain.ListResponse[domain.ClientRow] {
	filtered := Filter(rows, q)
	Sort(filtered, q.SortBy, q.Desc)
	return Paginate(filtered, q.Page, q.PageSize)
}
