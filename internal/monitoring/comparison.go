package monitoring

import (
	"math"
	"sort"
	"time"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

// recommendThreshold is the lead one provider needs over the runner-up
// before it is recommended outright. Anything closer is a tie.
const recommendThreshold = 1.1

// ProviderScore is one provider's entry in a comparison.
type ProviderScore struct {
	Provider        string  `json:"provider"`
	Score           float64 `json:"score"`
	SuccessRate     float64 `json:"success_rate"`
	AvgCompleteness float64 `json:"avg_completeness"`
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalRequests   int     `json:"total_requests"`
}

// Comparison ranks providers against each other on logged call history.
type Comparison struct {
	Scores         []ProviderScore   `json:"scores"`
	Recommendation string            `json:"recommendation"`
	Winners        map[string]string `json:"detailed_comparison"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Score grades one provider's track record on a 0-100 scale: success
// rate weighs 40%, answer completeness 30%, speed 20% and call
// reliability 10%.
func Score(s *model.ProviderStats) float64 {
	if s == nil || s.TotalRequests == 0 {
		return 0
	}
	speed := 1.0 / (s.AvgResponseTime + 1.0) * 100
	reliability := float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100
	score := s.SuccessRate()*0.4 + s.AvgCompleteness*0.3 + speed*0.2 + reliability*0.1
	return math.Round(score*100) / 100
}

// Compare scores every provider in stats and picks a recommendation.
// The leader is recommended only when its score beats the runner-up by
// more than 10%; otherwise the comparison reports a tie.
func Compare(stats map[string]*model.ProviderStats) *Comparison {
	cmp := &Comparison{
		Winners:     make(map[string]string),
		GeneratedAt: time.Now().UTC(),
	}

	for name, s := range stats {
		entry := ProviderScore{Provider: name, Score: Score(s)}
		if s != nil {
			entry.SuccessRate = s.SuccessRate()
			entry.AvgCompleteness = s.AvgCompleteness
			entry.AvgResponseTime = s.AvgResponseTime
			entry.TotalRequests = s.TotalRequests
		}
		cmp.Scores = append(cmp.Scores, entry)
	}

	sort.Slice(cmp.Scores, func(i, j int) bool {
		if cmp.Scores[i].Score != cmp.Scores[j].Score {
			return cmp.Scores[i].Score > cmp.Scores[j].Score
		}
		return cmp.Scores[i].Provider < cmp.Scores[j].Provider
	})

	cmp.Recommendation = recommend(cmp.Scores)
	cmp.Winners = winners(cmp.Scores)
	return cmp
}

func recommend(scores []ProviderScore) string {
	switch len(scores) {
	case 0:
		return ""
	case 1:
		return scores[0].Provider
	}
	best, second := scores[0], scores[1]
	if best.Score > second.Score*recommendThreshold {
		return best.Provider
	}
	return "tie"
}

// winners names the best provider per dimension, skipping providers
// with no traffic.
func winners(scores []ProviderScore) map[string]string {
	out := make(map[string]string)
	var active []ProviderScore
	for _, s := range scores {
		if s.TotalRequests > 0 {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return out
	}

	best := func(better func(a, b ProviderScore) bool) string {
		top := active[0]
		for _, s := range active[1:] {
			if better(s, top) {
				top = s
			}
		}
		return top.Provider
	}

	out["success_rate"] = best(func(a, b ProviderScore) bool { return a.SuccessRate > b.SuccessRate })
	out["completeness"] = best(func(a, b ProviderScore) bool { return a.AvgCompleteness > b.AvgCompleteness })
	out["speed"] = best(func(a, b ProviderScore) bool { return a.AvgResponseTime < b.AvgResponseTime })
	out["volume"] = best(func(a, b ProviderScore) bool { return a.TotalRequests > b.TotalRequests })
	return out
}
