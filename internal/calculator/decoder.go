package calculator

import (
	"math"
	"time"

	"cropcast/internal/domain"
)

// Decode maps raw graph output back to human-scale prices. The inverse of
// the normalization chain applies only for the group-normalizer tier: graphs
// trained against a plain scaler emit output already on the (log) price
// scale, so adding an inverse there would corrupt the result. The log1p
// applied at assembly is undone for every tier.
func Decode(raw domain.RawOutput, profile domain.NormalizationProfile, groupID string, baseDate time.Time) []domain.DailyPrediction {
	horizon := len(raw.Median)
	out := make([]domain.DailyPrediction, 0, horizon)

	for i := 0; i < horizon; i++ {
		median, lower, upper := raw.Median[i], raw.Lower[i], raw.Upper[i]

		if profile.Method == domain.MethodGroupNormalizer {
			median = GroupInverse(median, *profile.Group, groupID)
			lower = GroupInverse(lower, *profile.Group, groupID)
			upper = GroupInverse(upper, *profile.Group, groupID)
		}

		out = append(out, domain.DailyPrediction{
			Date:      baseDate.AddDate(0, 0, i+1),
			Price:     math.Expm1(median),
			ConfLower: math.Expm1(lower),
			ConfUpper: math.Expm1(upper),
		})
	}

	return out
}
