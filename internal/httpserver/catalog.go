package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	productrepo "storefront/internal/repository/product"
)

// queryList accepts both repeated keys and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func filterFromQuery(c *gin.Context) (productrepo.Filter, bool) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		badRequest(c, "limit must be a non-negative integer")
		return productrepo.Filter{}, false
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		badRequest(c, "offset must be a non-negative integer")
		return productrepo.Filter{}, false
	}
	return productrepo.Filter{
		ProductTypes: queryList(c, "product_type"),
		Vendors:      queryList(c, "vendor"),
		Colors:       queryList(c, "color"),
		Sizes:        queryList(c, "size"),
		Search:       strings.TrimSpace(c.Query("search")),
		Tag:          strings.TrimSpace(c.Query("tag")),
		Collection:   strings.TrimSpace(c.Query("collection")),
		Hot:          queryBool(c, "hot"),
		InStock:      queryBool(c, "in_stock"),
		Sort:         productrepo.Sort(c.Query("sort")),
		Limit:        limit,
		Offset:       offset,
	}, true
}

func (h *handlers) listProducts(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	page, err := h.deps.Catalog.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) filterOptions(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	opts, err := h.deps.Catalog.FilterOptions(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) getVariant(c *gin.Context) {
	v, err := h.deps.Catalog.Variant(c.Request.Context(), c.Param("id"), c.Query("option1"), c.Query("option2"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
