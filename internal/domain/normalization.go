package domain

// NormalizationMethod identifies which of the three normalization strategies
// was resolved for a request. The method chosen at normalize time is the one
// consulted at decode time - it travels with the request as data, never as
// hidden service state.
type NormalizationMethod string

const (
	MethodGroupNormalizer NormalizationMethod = "group_normalizer"
	MethodStandardScaler  NormalizationMethod = "standard_scaler"
	MethodDynamic         NormalizationMethod = "dynamic"
)

// FeatureStats is a per-feature or per-group mean/std pair. Std is never
// zero - resolvers substitute 1.0 before constructing one.
type FeatureStats struct {
	Mean float64
	Std  float64
}

// GroupNormalizerParams replicates the training-time target normalizer:
// optional softplus transform, then global center/scale, then per-group
// mean/std.
type GroupNormalizerParams struct {
	Transform  string // "softplus", "log1p" or "" for none
	Center     float64
	Scale      float64
	GroupStats map[string]FeatureStats
}

// NormalizationProfile is the resolved strategy for one request. Exactly one
// variant is active: Group is non-nil only for MethodGroupNormalizer,
// PerFeature holds z-score stats for the other two tiers (and, when the
// artifact carried both entries, supplemental stats for non-target features
// under the group tier).
type NormalizationProfile struct {
	Method     NormalizationMethod
	Group      *GroupNormalizerParams
	PerFeature map[string]FeatureStats
}
