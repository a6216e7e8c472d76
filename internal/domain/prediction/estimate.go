// internal/domain/prediction/estimate.go

package prediction

import "math"

// EstimateInput describes a title entered on the what-if form
type EstimateInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Type          string   `json:"type" validate:"required,oneof=Movie 'TV Show'"`
	Genres        []string `json:"genres" validate:"max=8,dive,required"`
	Country       string   `json:"country" validate:"omitempty,max=16"`
	Original      bool     `json:"original"`
	CastCount     int      `json:"cast_count" validate:"omitempty,min=1,max=30"`
	DirectorCount int      `json:"director_count" validate:"omitempty,min=1,max=5"`
	Duration      int      `json:"duration" validate:"omitempty,min=1,max=300"`
	IMDbScore     float64  `json:"imdb_score" validate:"min=1,max=10"`
}

// Recommendation is the marketing tier derived from viral probability
type Recommendation string

const (
	RecommendInvest   Recommendation = "invest"
	RecommendModerate Recommendation = "moderate"
	RecommendCautious Recommendation = "cautious"
)

// Estimate is a heuristic score for a title that has no model output yet
type Estimate struct {
	ViralProbability float64        `json:"viral_probability"`
	ViralLabel       string         `json:"viral_label"`
	RemovalRisk      float64        `json:"removal_risk"`
	RemovalLabel     string         `json:"removal_label"`
	Recommendation   Recommendation `json:"recommendation"`
	Heuristic        bool           `json:"heuristic"`
}

// EstimateTitle scores in with a fixed heuristic. It is not the trained
// model; the result is always flagged Heuristic.
func EstimateTitle(in EstimateInput) Estimate {
	viral := 0.5 + in.IMDbScore/20 + float64(len(in.Genres))*0.05
	removal := 0.4 - in.IMDbScore/25
	if in.Original {
		viral += 0.1
		removal -= 0.15
	}
	viral = math.Min(viral, 0.95)
	removal = math.Max(removal, 0.05)

	est := Estimate{
		ViralProbability: viral,
		RemovalRisk:      removal,
		Heuristic:        true,
	}

	switch {
	case viral > 0.7:
		est.ViralLabel, est.Recommendation = "high", RecommendInvest
	case viral > 0.4:
		est.ViralLabel, est.Recommendation = "medium", RecommendModerate
	default:
		est.ViralLabel, est.Recommendation = "low", RecommendCautious
	}

	switch {
	case removal < 0.3:
		est.RemovalLabel = "low"
	case removal < 0.6:
		est.RemovalLabel = "medium"
	default:
		est.RemovalLabel = "high"
	}

	return est
}
