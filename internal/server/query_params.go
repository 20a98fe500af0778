package server

import (
	"github.com/gin-gonic/gin"
	"github.com/quizhive/quizhive/pkg/db/pagination"
)

const maxPageSize = 250

func bindPagination(c *gin.Context) (pagination.Pagination, error) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		return pagination.Pagination{}, err
	}
	if page.PageSize <= 0 {
		page.PageSize = 10
	}
	if page.PageSize > maxPageSize {
		page.PageSize = maxPageSize
	}
	return page, nil
}
