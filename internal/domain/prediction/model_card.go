// internal/domain/prediction/model_card.go

package prediction

import "sort"

// FeatureImportance is one feature's gain in the production model
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Label      string  `json:"label"`
	LabelZH    string  `json:"label_zh"`
}

// ModelMetrics describes one trained model's evaluation figures
type ModelMetrics struct {
	ModelName string  `json:"model_name"`
	ROCAUC    float64 `json:"roc_auc"`
	Accuracy  float64 `json:"accuracy"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Precision float64 `json:"precision"`
}

// FeatureImportances returns the XGBoost gain figures sorted by importance,
// highest first. The figures are fixed from the last training run.
func FeatureImportances() []FeatureImportance {
	out := []FeatureImportance{
		{"log_revenue", 3.6, "Revenue (log)", "票房收益 (log)"},
		{"release_year", 3.4, "Release year", "發行年份"},
		{"tmdb_vote_count", 3.2, "TMDB vote count", "TMDB 投票數"},
		{"log_budget", 2.6, "Budget (log)", "製作預算 (log)"},
		{"type", 2.2, "Type", "作品類型"},
		{"language", 2.0, "Language", "語言"},
		{"imdb_rating", 1.9, "IMDb rating", "IMDb 評分"},
		{"tmdb_popularity", 1.6, "TMDB popularity", "TMDB 熱度"},
		{"primary_genre", 1.5, "Primary genre", "主要類別"},
		{"country", 1.3, "Country", "製作國家"},
		{"duration_val", 0.2, "Duration", "時長"},
		{"tmdb_vote_average", 0.1, "TMDB vote average", "TMDB 平均分"},
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

// ModelPerformance returns evaluation figures keyed by model id
func ModelPerformance() map[string]ModelMetrics {
	return map[string]ModelMetrics{
		"XGBoost": {
			ModelName: "Gradient Boosted Tree",
			ROCAUC:    0.9565,
			Accuracy:  0.9729,
			Recall:    0.1724,
			F1Score:   0.2702,
			Precision: 0.625,
		},
		"Logistic_Regression": {
			ModelName: "Baseline Logistic Regression",
			ROCAUC:    0.8399,
			Accuracy:  0.9729,
			Recall:    0.0230,
			F1Score:   0.0397,
			Precision: 0.1429,
		},
	}
}
