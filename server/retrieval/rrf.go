package retrieval

import "sort"

// rrfDampingFactor is the usual k = 60 default for Reciprocal Rank
// Fusion.
const rrfDampingFactor = 60

const (
	keywordWeight = 0.5
	vectorWeight  = 0.5
)

// fuseRRF merges the keyword and vector result lists with Reciprocal
// Rank Fusion: score(d) = sum over lists of weight / (k + rank).
func fuseRRF(keywordResults, vectorResults []*Result, limit int) []*Result {
	scoreMap := make(map[int32]float64)
	resultMap := make(map[int32]*Result)

	for rank, r := range keywordResults {
		id := r.Document.ID
		scoreMap[id] += keywordWeight / float64(rrfDampingFactor+rank+1)
		if _, ok := resultMap[id]; !ok {
			resultMap[id] = r
		}
	}
	for rank, r := range vectorResults {
		id := r.Document.ID
		scoreMap[id] += vectorWeight / float64(rrfDampingFactor+rank+1)
		if _, ok := resultMap[id]; !ok {
			resultMap[id] = r
		}
	}

	fused := make([]*Result, 0, len(scoreMap))
	for id, score := range scoreMap {
		fused = append(fused, &Result{Document: resultMap[id].Document, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Document.ID < fused[j].Document.ID
	})
	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
