package calculator

import (
	"cropcast/internal/domain"
	"encoding/json"
	"fmt"
)

// The preprocessing artifact arrives as decoded JSON with no schema
// guarantees. Rather than probing it with successive type assertions at use
// sites, the helpers here parse it once into an explicit tagged result; the
// three-tier resolution then becomes a plain priority check.

// groupNormalizerKeys are the artifact entries that may hold the
// training-time target normalizer, checked in order.
var groupNormalizerKeys = []string{"target_normalizer", "normalizer", "target_scaler"}

// scalerKeys are the artifact entries that may hold a plain per-feature
// scaler, checked in order.
var scalerKeys = []string{"scaler", "feature_scaler", "x_scaler", "normalizer"}

// ParseArtifact decodes a preprocessing artifact from its published JSON
// form. The shape is validated lazily at resolution time, so this only
// rejects bytes that are not a JSON object.
func ParseArtifact(data []byte) (domain.PreprocessingArtifact, error) {
	artifact := domain.PreprocessingArtifact{}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode preprocessing artifact: %w", err)
	}
	return artifact, nil
}

// scalerSpec is a parsed plain-scaler entry. Names is nil when the artifact
// carried no feature-name table, in which case alignment is positional.
type scalerSpec struct {
	Means []float64
	Stds  []float64
	Names []string
}

// parseGroupNormalizer scans the artifact for a group-normalizer-shaped
// entry: a transform kind plus center/scale plus per-group mean/std tables.
// Center and scale may be scalars or single-element arrays depending on how
// the artifact was exported.
func parseGroupNormalizer(artifact domain.PreprocessingArtifact) (*domain.GroupNormalizerParams, bool) {
	for _, key := range groupNormalizerKeys {
		entry, ok := asMap(artifact[key])
		if !ok {
			continue
		}

		params, ok := groupParamsFromEntry(entry)
		if !ok {
			continue
		}
		return params, true
	}

	// Some exports place the normalizer at the top level under
	// metadata/normalizer_params instead of a named entry.
	if _, hasMeta := asMap(artifact["metadata"]); hasMeta {
		if params, ok := groupParamsFromEntry(artifact); ok {
			return params, true
		}
	}

	return nil, false
}

func groupParamsFromEntry(entry map[string]interface{}) (*domain.GroupNormalizerParams, bool) {
	inner := entry
	if np, ok := asMap(entry["normalizer_params"]); ok {
		inner = np
	}

	center, hasCenter := asScalar(inner["center"])
	scale, hasScale := asScalar(inner["scale"])
	groupStats, hasGroups := parseGroupStats(inner["group_statistics"])
	if !hasCenter || !hasScale || !hasGroups {
		return nil, false
	}

	transform := ""
	if meta, ok := asMap(entry["metadata"]); ok {
		transform, _ = asString(meta["transformation"])
	}
	if t, ok := asString(entry["transformation"]); ok {
		transform = t
	}

	return &domain.GroupNormalizerParams{
		Transform:  transform,
		Center:     center,
		Scale:      scale,
		GroupStats: groupStats,
	}, true
}

func parseGroupStats(v interface{}) (map[string]domain.FeatureStats, bool) {
	raw, ok := asMap(v)
	if !ok || len(raw) == 0 {
		return nil, false
	}

	out := make(map[string]domain.FeatureStats, len(raw))
	for group, statsVal := range raw {
		statsMap, ok := asMap(statsVal)
		if !ok {
			return nil, false
		}
		mean, okMean := asScalar(statsMap["mean"])
		std, okStd := asScalar(statsMap["std"])
		if !okMean || !okStd {
			return nil, false
		}
		if std == 0 {
			std = 1.0
		}
		out[group] = domain.FeatureStats{Mean: mean, Std: std}
	}
	return out, true
}

// parseScaler scans the artifact for a plain-scaler entry exposing mean/std
// arrays, accepting both the sklearn attribute names (mean_/scale_) and
// plain variants.
func parseScaler(artifact domain.PreprocessingArtifact) (*scalerSpec, bool) {
	for _, key := range scalerKeys {
		entry, ok := asMap(artifact[key])
		if !ok {
			continue
		}

		means, okMeans := firstFloatSlice(entry, "mean_", "mean", "means")
		stds, okStds := firstFloatSlice(entry, "scale_", "scale", "std", "stds")
		if !okMeans || !okStds || len(means) == 0 || len(means) != len(stds) {
			continue
		}

		spec := &scalerSpec{Means: means, Stds: stds}
		if names, ok := firstStringSlice(entry, "feature_names_in_", "feature_names"); ok {
			spec.Names = names
		} else if names, ok := firstStringSlice(artifact, "feature_names"); ok {
			spec.Names = names
		}
		return spec, true
	}
	return nil, false
}

func firstFloatSlice(m map[string]interface{}, keys ...string) ([]float64, bool) {
	for _, k := range keys {
		if vals, ok := asFloatSlice(m[k]); ok {
			return vals, true
		}
	}
	return nil, false
}

func firstStringSlice(m map[string]interface{}, keys ...string) ([]string, bool) {
	for _, k := range keys {
		if vals, ok := asStringSlice(m[k]); ok && len(vals) > 0 {
			return vals, true
		}
	}
	return nil, false
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asScalar accepts a number or a single-element numeric array.
func asScalar(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case []interface{}:
		if len(t) == 1 {
			return asScalar(t[0])
		}
	}
	return 0, false
}

func asFloatSlice(v interface{}) ([]float64, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		f, ok := asScalar(e)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func asStringSlice(v interface{}) ([]string, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
