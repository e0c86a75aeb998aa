package domain

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DeletedScope selects whether tombstoned rows are visible.
// The zero value hides them.
type DeletedScope int

const (
	ExcludeDeleted DeletedScope = iota
	// IncludeDeleted is reserved for the admin audit listing and restore
	IncludeDeleted
)

// SortOrder is the direction of a listing sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProductSort is a sortable product column
type ProductSort string

const (
	ProductSortCreatedAt    ProductSort = "createdAt"
	ProductSortName         ProductSort = "name"
	ProductSortRating       ProductSort = "rating"
	ProductSortTotalReviews ProductSort = "totalReviews"
)

var productSorts = map[string]ProductSort{
	"createdAt":     ProductSortCreatedAt,
	"created_at":    ProductSortCreatedAt,
	"newest":        ProductSortCreatedAt,
	"name":          ProductSortName,
	"rating":        ProductSortRating,
	"totalReviews":  ProductSortTotalReviews,
	"total_reviews": ProductSortTotalReviews,
	"reviews":       ProductSortTotalReviews,
}

// ReviewSort is a sortable review column
type ReviewSort string

const (
	ReviewSortCreatedAt    ReviewSort = "createdAt"
	ReviewSortRating       ReviewSort = "rating"
	ReviewSortHelpfulCount ReviewSort = "helpfulCount"
)

var reviewSorts = map[string]ReviewSort{
	"createdAt":     ReviewSortCreatedAt,
	"created_at":    ReviewSortCreatedAt,
	"newest":        ReviewSortCreatedAt,
	"rating":        ReviewSortRating,
	"helpfulCount":  ReviewSortHelpfulCount,
	"helpful_count": ReviewSortHelpfulCount,
	"helpful":       ReviewSortHelpfulCount,
}

// Page size limits
const (
	DefaultPublicPageSize = 12
	DefaultAdminPageSize  = 20
	DefaultReviewPageSize = 10
	MaxPageSize           = 100

	// MaxPage keeps (page-1)*pageSize within int range on every platform
	MaxPage = math.MaxInt32 / MaxPageSize
)

// statusAll is the explicit "every status" filter value
const statusAll = "all"

// ProductParams are raw product listing parameters as received from a client
type ProductParams struct {
	Status         string
	Search         string
	Category       string
	Pricing        string
	Featured       bool
	Mine           bool
	Sort           string
	Order          string
	Page           int
	Limit          int
	IncludeDeleted bool
}

// ProductQuery is a normalized product listing query
type ProductQuery struct {
	// Status is nil when every status matches
	Status       *ProductStatus
	Search       string
	CategoryID   *uuid.UUID
	CategorySlug string
	Pricing      string
	FeaturedOnly bool
	SubmittedBy  *uuid.UUID
	Sort         ProductSort
	Order        SortOrder
	Page         int
	PageSize     int
	Deleted      DeletedScope
}

// NormalizePublic builds the public product query. Status defaults to approved;
// any other status needs an admin, unless the caller lists their own submissions.
func NormalizePublic(p ProductParams, actor *Actor) (ProductQuery, error) {
	q, err := normalizeProductCommon(p, DefaultPublicPageSize)
	if err != nil {
		return ProductQuery{}, err
	}

	if p.Mine {
		if err := RequireActor(actor); err != nil {
			return ProductQuery{}, err
		}
		owner := actor.UserID
		q.SubmittedBy = &owner
	}

	status := strings.TrimSpace(p.Status)
	switch {
	case status == "" && p.Mine:
		q.Status = nil
	case status == "":
		approved := ProductApproved
		q.Status = &approved
	case status == statusAll:
		if !p.Mine && !actor.IsAdmin() {
			return ProductQuery{}, Denied("listing every status requires admin")
		}
		q.Status = nil
	default:
		s := ProductStatus(status)
		if !s.Valid() {
			return ProductQuery{}, Invalid("unknown status %q", status)
		}
		if s != ProductApproved && !p.Mine && !actor.IsAdmin() {
			return ProductQuery{}, Denied("listing %s products requires admin", s)
		}
		q.Status = &s
	}

	return q, nil
}

// NormalizeAdmin builds the admin product query. Status defaults to all and
// tombstoned rows may be included for auditing.
func NormalizeAdmin(p ProductParams) (ProductQuery, error) {
	q, err := normalizeProductCommon(p, DefaultAdminPageSize)
	if err != nil {
		return ProductQuery{}, err
	}

	status := strings.TrimSpace(p.Status)
	if status != "" && status != statusAll {
		s := ProductStatus(status)
		if !s.Valid() {
			return ProductQuery{}, Invalid("unknown status %q", status)
		}
		q.Status = &s
	}
	if p.IncludeDeleted {
		q.Deleted = IncludeDeleted
	}
	return q, nil
}

func normalizeProductCommon(p ProductParams, defaultSize int) (ProductQuery, error) {
	q := ProductQuery{
		Search:       strings.TrimSpace(p.Search),
		Pricing:      strings.TrimSpace(p.Pricing),
		FeaturedOnly: p.Featured,
		Sort:         ProductSortCreatedAt,
		Order:        SortDesc,
	}

	if c := strings.TrimSpace(p.Category); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			q.CategoryID = &id
		} else {
			q.CategorySlug = strings.ToLower(c)
		}
	}

	if p.Sort != "" {
		s, ok := productSorts[p.Sort]
		if !ok {
			return ProductQuery{}, Invalid("unknown sort key %q", p.Sort)
		}
		q.Sort = s
	}

	order, err := parseOrder(p.Order)
	if err != nil {
		return ProductQuery{}, err
	}
	q.Order = order
	q.Page, q.PageSize = clampPage(p.Page, p.Limit, defaultSize)
	return q, nil
}

// Offset returns the number of rows skipped before the current page
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// WithPage returns a copy of the query pointing at another page
func (q ProductQuery) WithPage(page int) ProductQuery {
	q.Page = boundPage(page)
	return q
}

// WithoutStatus returns a copy of the query matching every status
func (q ProductQuery) WithoutStatus() ProductQuery {
	q.Status = nil
	return q
}

// Values encodes the query as URL parameters accepted by the listing endpoints
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Status != nil {
		v.Set("status", string(*q.Status))
	} else {
		v.Set("status", statusAll)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.CategoryID != nil {
		v.Set("category", q.CategoryID.String())
	} else if q.CategorySlug != "" {
		v.Set("category", q.CategorySlug)
	}
	if q.Pricing != "" {
		v.Set("pricing", q.Pricing)
	}
	if q.FeaturedOnly {
		v.Set("featured", "true")
	}
	if q.SubmittedBy != nil {
		v.Set("mine", "true")
	}
	if q.Deleted == IncludeDeleted {
		v.Set("include_deleted", "true")
	}
	v.Set("sort", string(q.Sort))
	v.Set("order", string(q.Order))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.PageSize))
	return v
}

// ReviewParams are raw review listing parameters
type ReviewParams struct {
	ProductID      *uuid.UUID
	UserID         *uuid.UUID
	Status         string
	Sort           string
	Order          string
	Page           int
	Limit          int
	IncludeDeleted bool
}

// ReviewQuery is a normalized review listing query
type ReviewQuery struct {
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	// Status is nil when every status matches
	Status   *ReviewStatus
	Sort     ReviewSort
	Order    SortOrder
	Page     int
	PageSize int
	Deleted  DeletedScope
}

// NormalizeReviewsPublic builds the public review query; status defaults to approved
// and any other status needs an admin.
func NormalizeReviewsPublic(p ReviewParams, actor *Actor) (ReviewQuery, error) {
	q, err := normalizeReviewCommon(p, DefaultReviewPageSize)
	if err != nil {
		return ReviewQuery{}, err
	}

	status := strings.TrimSpace(p.Status)
	switch status {
	case "":
		approved := ReviewApproved
		q.Status = &approved
	case statusAll:
		if !actor.IsAdmin() {
			return ReviewQuery{}, Denied("listing every status requires admin")
		}
	default:
		s := ReviewStatus(status)
		if !s.Valid() {
			return ReviewQuery{}, Invalid("unknown status %q", status)
		}
		if s != ReviewApproved && !actor.IsAdmin() {
			return ReviewQuery{}, Denied("listing %s reviews requires admin", s)
		}
		q.Status = &s
	}
	return q, nil
}

// NormalizeReviewsAdmin builds the admin review query; status defaults to all
func NormalizeReviewsAdmin(p ReviewParams) (ReviewQuery, error) {
	q, err := normalizeReviewCommon(p, DefaultAdminPageSize)
	if err != nil {
		return ReviewQuery{}, err
	}

	status := strings.TrimSpace(p.Status)
	if status != "" && status != statusAll {
		s := ReviewStatus(status)
		if !s.Valid() {
			return ReviewQuery{}, Invalid("unknown status %q", status)
		}
		q.Status = &s
	}
	if p.IncludeDeleted {
		q.Deleted = IncludeDeleted
	}
	return q, nil
}

func normalizeReviewCommon(p ReviewParams, defaultSize int) (ReviewQuery, error) {
	q := ReviewQuery{
		ProductID: p.ProductID,
		UserID:    p.UserID,
		Sort:      ReviewSortCreatedAt,
		Order:     SortDesc,
	}

	if p.Sort != "" {
		s, ok := reviewSorts[p.Sort]
		if !ok {
			return ReviewQuery{}, Invalid("unknown sort key %q", p.Sort)
		}
		q.Sort = s
	}

	order, err := parseOrder(p.Order)
	if err != nil {
		return ReviewQuery{}, err
	}
	q.Order = order
	q.Page, q.PageSize = clampPage(p.Page, p.Limit, defaultSize)
	return q, nil
}

// Offset returns the number of rows skipped before the current page
func (q ReviewQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// WithPage returns a copy of the query pointing at another page
func (q ReviewQuery) WithPage(page int) ReviewQuery {
	q.Page = boundPage(page)
	return q
}

// WithoutStatus returns a copy of the query matching every status
func (q ReviewQuery) WithoutStatus() ReviewQuery {
	q.Status = nil
	return q
}

// Values encodes the query as URL parameters accepted by the listing endpoints
func (q ReviewQuery) Values() url.Values {
	v := url.Values{}
	if q.Status != nil {
		v.Set("status", string(*q.Status))
	} else {
		v.Set("status", statusAll)
	}
	if q.ProductID != nil {
		v.Set("product_id", q.ProductID.String())
	}
	if q.UserID != nil {
		v.Set("user_id", q.UserID.String())
	}
	if q.Deleted == IncludeDeleted {
		v.Set("include_deleted", "true")
	}
	v.Set("sort", string(q.Sort))
	v.Set("order", string(q.Order))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.PageSize))
	return v
}

func parseOrder(raw string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(SortDesc):
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	default:
		return "", Invalid("order must be asc or desc")
	}
}

func boundPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

func clampPage(page, limit, defaultSize int) (int, int) {
	page = boundPage(page)
	if limit <= 0 {
		limit = defaultSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// PageInfo describes where a page sits in a listing
type PageInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPageInfo computes paging metadata for a listing of total rows
func NewPageInfo(page, limit, total int) PageInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// StatusCounts holds per-status row counts for admin listings
type StatusCounts struct {
	All      int `json:"all" db:"all_count"`
	Pending  int `json:"pending" db:"pending_count"`
	Approved int `json:"approved" db:"approved_count"`
	Rejected int `json:"rejected" db:"rejected_count"`
}

// Add counts one row in the given status
func (c *StatusCounts) Add(status string) {
	c.All++
	switch status {
	case "pending":
		c.Pending++
	case "approved":
		c.Approved++
	case "rejected":
		c.Rejected++
	}
}
