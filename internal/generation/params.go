package generation

import "strings"

// paramProfile selects provider request parameters for a model family.
type paramProfile struct {
	// useCompletionTokensField sends max_completion_tokens instead of
	// max_tokens.
	useCompletionTokensField bool
	// omitTemperature drops the sampling temperature entirely; some
	// model families reject it.
	omitTemperature bool
}

// modelOverride maps a model-name fragment to an alternate parameter
// profile. The table exists because the provider's parameter contract
// differs per model family and changes over time; extend it here rather
// than branching in the request path.
type modelOverride struct {
	match   string
	profile paramProfile
}

var modelOverrides = []modelOverride{
	{match: "gpt-5", profile: paramProfile{useCompletionTokensField: true, omitTemperature: true}},
	{match: "o1", profile: paramProfile{useCompletionTokensField: true, omitTemperature: true}},
	{match: "o3", profile: paramProfile{useCompletionTokensField: true, omitTemperature: true}},
	{match: "o4-mini", profile: paramProfile{useCompletionTokensField: true, omitTemperature: true}},
}

// profileFor returns the parameter profile for a model name.
// Matching is case-insensitive on name prefixes.
func profileFor(model string) paramProfile {
	lower := strings.ToLower(model)
	for _, o := range modelOverrides {
		if strings.HasPrefix(lower, o.match) {
			return o.profile
		}
	}
	return paramProfile{}
}
