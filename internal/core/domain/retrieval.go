package domain

// RetrievedChunk is a chunk returned by similarity search together with its score.
type RetrievedChunk struct {
	Chunk      Chunk
	Similarity float64
}

// TopSimilarity returns the similarity of the first result, or 0 when empty.
// Results are ordered by descending similarity.
func TopSimilarity(results []RetrievedChunk) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Similarity
}
