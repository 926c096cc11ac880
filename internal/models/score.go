package models

// ScoreResult is the record handed back to callers for one scored product
type ScoreResult struct {
	ID string `json:"id"`

	NutriScore      int    `json:"nutriscore"`
	NutriScoreGrade string `json:"nutriscore_grade"`
	Scaled100       int    `json:"nutriscore_scaled_100"`

	Additives      []AdditiveDetail `json:"additives"`
	AdditivesRisk  int              `json:"additives_risk"`
	Organic        bool             `json:"organic"`
	OrganicPenalty int              `json:"organic_penalty"`
	FinalScore     int              `json:"final_score"`
	FoodType       FoodType         `json:"food_type"`

	// Echo of the normalized inputs
	NutritionalValues
}
