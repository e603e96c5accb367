package controllers

import (
	"strings"

	"car-search-backend/appsearch"
	"car-search-backend/utils/pagination"
)

func appsearchRequest(q string, params pagination.PaginationParams, sortBy []string) appsearch.SearchRequest {
	return appsearch.SearchRequest{
		Query:   strings.TrimSpace(q),
		Filters: params.Filters,
		From:    params.Offset(),
		Size:    params.PageSize,
		SortBy:  sortBy,
	}
}
