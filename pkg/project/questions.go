package project

// ClarifyingQuestions lists inputs that drive rules but are missing from the
// project. Optional answers are read from metadata.
func (p *ProjectInput) ClarifyingQuestions() []string {
	var questions []string

	if !(p.TotalDisturbedAcres > 0) {
		questions = append(questions, "What is the total disturbed area (acres)?")
	}
	if len(p.DrainageFeatures) == 0 && !p.hasMetadata("contains_inlets") {
		questions = append(questions, "Are there inlets within or downstream of the project limits?")
	}
	if !p.hasMetadata("near_water") {
		questions = append(questions, "Is work adjacent to waterways, wetlands, or other waters?")
	}
	if !p.hasMetadata("max_slope_percent") {
		questions = append(questions, "What are the maximum exposed slopes (%)?")
	}
	if !p.hasMetadata("season") {
		questions = append(questions, "Which construction season will major earthwork occur in?")
	}
	return questions
}

func (p *ProjectInput) hasMetadata(key string) bool {
	if p.Metadata == nil {
		return false
	}
	v, ok := p.Metadata[key]
	return ok && v != nil
}
