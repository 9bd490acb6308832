package domain

// Fact is a stylized fact from the claim catalogue.
type Fact struct {
	// Number is the globally unique ordering key.
	Number int

	// Text is the claim being assessed.
	Text string

	// Section is the catalogue grouping the fact came from.
	Section string

	// SourceFile is the catalogue file the fact was loaded from.
	SourceFile string

	// Embedding is nil until the fact has been indexed.
	Embedding []float32
}

// SampleFacts picks n facts spread evenly across the slice.
// When n is not smaller than the slice length, all facts are returned.
func SampleFacts(facts []Fact, n int) []Fact {
	if n <= 0 || n >= len(facts) {
		return facts
	}
	step := len(facts) / n
	sampled := make([]Fact, 0, n)
	for i := range n {
		sampled = append(sampled, facts[i*step])
	}
	return sampled
}
