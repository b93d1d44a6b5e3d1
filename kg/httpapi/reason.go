package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wbrown/reasongraph/kg/reasoner"
)

// ReasonRequest is the request body for POST /reason: the rule set to
// load before materializing, and which forward-chaining strategy to run.
type ReasonRequest struct {
	Rules    []RuleSpec `json:"rules"`
	Strategy string     `json:"strategy"` // "naive" | "semi_naive" | "parallel", default "semi_naive"
}

// ReasonResponse is the response body for POST /reason.
type ReasonResponse struct {
	Asserted     int   `json:"asserted"`
	Inferred     int   `json:"inferred"`
	Total        int   `json:"total"`
	Rounds       int   `json:"rounds"`
	RulesApplied int   `json:"rules_applied"`
	PerRound     []int `json:"new_facts_per_round"`
}

// handleReason loads req's rules into the server's reasoner and runs the
// requested materialization strategy, reporting the resulting counters.
func (s *Server) handleReason(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asserted := s.reasoner.Size()

	for _, rs := range req.Rules {
		for _, f := range rs.Filters {
			if err := validateOperator(f.Operator); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		rule := reasoner.Rule{
			Premise:    parsePatterns(s.reasoner.Dictionary(), rs.Premise),
			Filters:    parseFilters(rs.Filters),
			Conclusion: parsePatterns(s.reasoner.Dictionary(), rs.Conclusion),
		}
		if _, err := s.reasoner.AddRule(rule); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var stats = runMaterialize(s.reasoner, req.Strategy)

	c.JSON(http.StatusOK, ReasonResponse{
		Asserted:     asserted,
		Inferred:     stats.TotalDerived,
		Total:        s.reasoner.Size(),
		Rounds:       stats.Rounds,
		RulesApplied: len(s.reasoner.Rules()),
		PerRound:     stats.NewFactsPerRound,
	})
}

func runMaterialize(r *reasoner.Reasoner, strategy string) reasoner.MaterializeStats {
	switch strategy {
	case "naive":
		return r.Materialize()
	case "parallel":
		return r.MaterializeParallel()
	default:
		return r.MaterializeSemiNaive()
	}
}
