package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/service"
)

// pathID parses the :id path parameter. An id that is not a UUID cannot name
// any row, so it is answered with 404.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// queryBool reads a 0/1 or true/false flag; absent means no filter.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name, name+" must be 0 or 1")
		return nil, false
	}
	return &v, true
}

func paging(c *gin.Context) (limit, page int, ok bool) {
	if limit, ok = queryInt(c, "limit"); !ok {
		return 0, 0, false
	}
	if page, ok = queryInt(c, "page"); !ok {
		return 0, 0, false
	}
	return limit, page, true
}

// respondAdd answers an add toggle: 201 with body when added, 409 when the
// membership already existed.
func respondAdd(c *gin.Context, outcome service.MembershipOutcome, body interface{}, presentMsg string) {
	if outcome == service.AlreadyPresent {
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: presentMsg})
		return
	}
	c.JSON(http.StatusCreated, body)
}

// respondRemove answers a remove toggle: 204 when removed, 400 when there was
// nothing to remove.
func respondRemove(c *gin.Context, outcome service.MembershipOutcome, absentMsg string) {
	if outcome == service.NotPresent {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: absentMsg})
		return
	}
	c.Status(http.StatusNoContent)
}
