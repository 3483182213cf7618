package api

// CreateDiagramRequest is the request body for creating a diagram.
type CreateDiagramRequest struct {
	Name    string  `json:"name"`
	Content string  `json:"content"`
	Prompt  *string `json:"prompt,omitempty"`
}

// UpdateDiagramRequest is the request body for updating diagram content.
// A nil Prompt leaves the previously stored prompt in place.
type UpdateDiagramRequest struct {
	Content string  `json:"content"`
	Prompt  *string `json:"prompt,omitempty"`
}

// RenameDiagramRequest is the request body for renaming a diagram.
type RenameDiagramRequest struct {
	Name string `json:"name"`
}

// GenerateRequest is the request body for AI diagram generation.
// Content, when present, switches the provider framing from
// create-from-scratch to modify-existing.
type GenerateRequest struct {
	Prompt  string `json:"prompt"`
	Content string `json:"content,omitempty"`
}

// GenerateResponse carries the generated diagram text.
type GenerateResponse struct {
	Content string `json:"content"`
}

// TestConnectionResponse is returned by the provider connectivity check.
type TestConnectionResponse struct {
	Model string `json:"model"`
	Reply string `json:"reply"`
}

// SetSettingRequest is the request body for writing a settings value.
type SetSettingRequest struct {
	Value string `json:"value"`
}

// SettingValue is a single settings key/value pair.
type SettingValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
