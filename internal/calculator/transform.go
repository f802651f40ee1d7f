package calculator

import (
	"math"

	"cropcast/internal/domain"
)

// Pure forward/inverse transforms replicating the training-time
// normalization outside the training framework. Any drift here shows up as
// silently wrong prices, so the shapes below follow the training library's
// math exactly, including the large-value linearization of softplus.

// Softplus computes ln(1 + e^x). Above 20 the exponential dwarfs the +1 and
// the identity is used to avoid overflow, matching training behavior.
func Softplus(x float64) float64 {
	if x > 20 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// InverseSoftplus computes ln(e^y - 1), the exact inverse of Softplus,
// with the same large-value linearization.
func InverseSoftplus(y float64) float64 {
	if y > 20 {
		return y
	}
	return math.Log(math.Expm1(y))
}

// ZScore normalizes one value against fixed stats.
func ZScore(value float64, s domain.FeatureStats) float64 {
	return (value - s.Mean) / s.Std
}

// GroupForward applies the full target-feature chain: optional transform,
// global center/scale, then per-group standardization. Unknown group ids
// skip the per-group step, mirroring the training normalizer's behavior for
// groups without statistics.
func GroupForward(raw float64, p domain.GroupNormalizerParams, groupID string) float64 {
	t := applyTransform(raw, p.Transform)
	s := t - p.Center
	s = s / safeScale(p.Scale)

	if gs, ok := p.GroupStats[groupID]; ok {
		s = (s - gs.Mean) / safeScale(gs.Std)
	}
	return s
}

// GroupInverse undoes GroupForward step for step, in reverse order.
func GroupInverse(normalized float64, p domain.GroupNormalizerParams, groupID string) float64 {
	v := normalized
	if gs, ok := p.GroupStats[groupID]; ok {
		v = v*safeScale(gs.Std) + gs.Mean
	}
	v = v * safeScale(p.Scale)
	v = v + p.Center
	return invertTransform(v, p.Transform)
}

func applyTransform(x float64, kind string) float64 {
	switch kind {
	case "softplus":
		return Softplus(x)
	case "log", "log1p":
		return math.Log1p(x)
	default:
		return x
	}
}

func invertTransform(x float64, kind string) float64 {
	switch kind {
	case "softplus":
		return InverseSoftplus(x)
	case "log", "log1p":
		return math.Expm1(x)
	default:
		return x
	}
}

func safeScale(s float64) float64 {
	if math.Abs(s) < 1e-8 {
		return 1.0
	}
	return s
}
