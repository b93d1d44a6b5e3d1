package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wbrown/reasongraph/kg/executor"
	"github.com/wbrown/reasongraph/kg/planner"
)

// QueryRequest is the request body for POST /query: a flat conjunction
// of patterns, an optional set of filters applied after the join, and
// the variables to project in the response. This is a restriction of
// the (variables, patterns, filters, binds, values) logical-plan shape
// the query surface's wire contract names, sized to what a JSON client
// can build without hand-constructing a tree.
type QueryRequest struct {
	Patterns    []PatternSpec `json:"patterns"`
	Filters     []FilterSpec  `json:"filters"`
	ProjectVars []string      `json:"project"`
}

// QueryResponse is the response body for POST /query.
type QueryResponse struct {
	Rows  []executor.StringRow `json:"rows"`
	Count int                  `json:"count"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Patterns) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patterns must be non-empty"})
		return
	}
	for _, f := range req.Filters {
		if err := validateOperator(f.Operator); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	dict := s.reasoner.Dictionary()
	patterns := parsePatterns(dict, req.Patterns)

	var logical planner.Logical = planner.Scan{Pattern: patterns[0]}
	for _, p := range patterns[1:] {
		logical = planner.Join{Left: logical, Right: planner.Scan{Pattern: p}}
	}

	if cond := combineFilters(req.Filters); cond != nil {
		logical = planner.Selection{Input: logical, Condition: cond}
	}
	if len(req.ProjectVars) > 0 {
		logical = planner.Projection{Input: logical, Vars: req.ProjectVars}
	}

	phys := s.planner.Plan(logical)
	rel := s.executor.Execute(phys)

	c.JSON(http.StatusOK, QueryResponse{Rows: rel.Decode(dict), Count: rel.Size()})
}

func combineFilters(specs []FilterSpec) planner.Condition {
	if len(specs) == 0 {
		return nil
	}
	conditions := parseFilters(specs)
	cond := planner.Condition(planner.SimpleCondition{FilterCondition: conditions[0]})
	for _, f := range conditions[1:] {
		cond = planner.AndCondition{Left: cond, Right: planner.SimpleCondition{FilterCondition: f}}
	}
	return cond
}
