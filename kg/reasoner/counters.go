package reasoner

// MaterializeStats are the counters recorded by each materialization run:
// how many rounds ran and how many new facts each one derived.
type MaterializeStats struct {
	Rounds           int
	NewFactsPerRound []int
	TotalDerived     int
}

func (s *MaterializeStats) recordRound(newFacts int) {
	s.Rounds++
	s.NewFactsPerRound = append(s.NewFactsPerRound, newFacts)
	s.TotalDerived += newFacts
}
