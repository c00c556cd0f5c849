package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaginationParams carries the listing knobs shared by the payment,
// driver and lot endpoints. Sort names are the raw bson field names.
type PaginationParams struct {
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"page_size" form:"page_size"`
	Sort     string `json:"sort" form:"sort"`
	Order    string `json:"order" form:"order"`
	Search   string `json:"search" form:"search"`
}

type PaginationMeta struct {
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	Total        int64 `json:"total"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     *int  `json:"next_page,omitempty"`
	PreviousPage *int  `json:"previous_page,omitempty"`
}

func GetPaginationParams(c *gin.Context) *PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))

	params := &PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery("sort", "createdAt"),
		Order:    c.DefaultQuery("order", "desc"),
		Search:   c.Query("search"),
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < MinPageSize {
		params.PageSize = MinPageSize
	}
	if params.PageSize > MaxPageSize {
		params.PageSize = MaxPageSize
	}
	if params.Order != "asc" && params.Order != "desc" {
		params.Order = "desc"
	}

	return params
}

func (p *PaginationParams) GetSkip() int {
	return (p.Page - 1) * p.PageSize
}

func (p *PaginationParams) GetLimit() int {
	return p.PageSize
}

// GetSortOptions builds the mongo find options for the requested page and
// sort order.
func (p *PaginationParams) GetSortOptions() *options.FindOptions {
	order := -1
	if p.Order == "asc" {
		order = 1
	}

	return options.Find().
		SetSkip(int64(p.GetSkip())).
		SetLimit(int64(p.GetLimit())).
		SetSort(bson.D{{Key: p.Sort, Value: order}})
}

// GetSearchFilter matches the search term case-insensitively against the
// given bson fields (references, phone numbers, lot numbers).
func (p *PaginationParams) GetSearchFilter(fields []string) bson.M {
	if p.Search == "" || len(fields) == 0 {
		return bson.M{}
	}

	conditions := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, bson.M{
			field: bson.M{"$regex": p.Search, "$options": "i"},
		})
	}

	return bson.M{"$or": conditions}
}

func CreatePaginationMeta(params *PaginationParams, total int64) *PaginationMeta {
	totalPages := int(math.Ceil(float64(total) / float64(params.PageSize)))

	meta := &PaginationMeta{
		Page:        params.Page,
		PageSize:    params.PageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
	if meta.HasNext {
		next := params.Page + 1
		meta.NextPage = &next
	}
	if meta.HasPrevious {
		previous := params.Page - 1
		meta.PreviousPage = &previous
	}

	return meta
}
