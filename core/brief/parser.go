package brief

import (
	"fmt"
	"strings"

	"task-forge/core/models"

	"gopkg.in/yaml.v3"
)

// BriefSpec represents the YAML brief file
type BriefSpec struct {
	Brief BriefSpecBrief `yaml:"brief"`
}

// BriefSpecBrief represents the brief section of the file
type BriefSpecBrief struct {
	Prompt       string                 `yaml:"prompt"`
	Kind         string                 `yaml:"kind,omitempty"` // image | code | text, forwarded as a hint
	Style        string                 `yaml:"style,omitempty"`
	Audience     string                 `yaml:"audience,omitempty"`
	Requirements map[string]interface{} `yaml:"requirements,omitempty"`
}

// ParseBrief parses a YAML brief into a job creation request.
// Named fields and the free-form requirements map are merged into one bag.
func ParseBrief(briefYAML string) (*models.CreateJobRequest, error) {
	var doc BriefSpec
	if err := yaml.Unmarshal([]byte(briefYAML), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	prompt := strings.TrimSpace(doc.Brief.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("brief.prompt is required")
	}

	requirements := make(map[string]interface{}, len(doc.Brief.Requirements)+3)
	for k, v := range doc.Brief.Requirements {
		requirements[k] = v
	}
	setIfPresent(requirements, "kind", doc.Brief.Kind)
	setIfPresent(requirements, "style", doc.Brief.Style)
	setIfPresent(requirements, "audience", doc.Brief.Audience)

	if kind, ok := requirements["kind"].(string); ok && !validKind(kind) {
		return nil, fmt.Errorf("invalid brief kind %q", kind)
	}

	req := &models.CreateJobRequest{Prompt: prompt}
	if len(requirements) > 0 {
		req.Requirements = requirements
	}
	return req, nil
}

func setIfPresent(m map[string]interface{}, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		m[key] = value
	}
}

func validKind(kind string) bool {
	switch kind {
	case "image", "code", "text":
		return true
	}
	return false
}
