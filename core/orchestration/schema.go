package orchestration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema only pins what the engine cannot work without: an object
// whose "items", when present, is a list of objects. Optional fields are
// checked while decoding and dropped individually when unusable.
const responseSchema = `{
	"type": "object",
	"properties": {
		"items": {
			"type": ["array", "null"],
			"items": {"type": "object"}
		}
	}
}`

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func orchestratorSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("orchestrator_response.json", strings.NewReader(responseSchema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("orchestrator_response.json")
	})
	return compiledSchema, compileErr
}

// DecodeResponse validates and decodes an orchestrator success body.
// Shape violations of the items list are reported as ErrMalformedResponse.
func DecodeResponse(body []byte) (*OrchestratorResponse, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: body is not JSON: %v", ErrMalformedResponse, err)
	}

	schema, err := orchestratorSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var resp OrchestratorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

// UnmarshalJSON decodes the items list strictly and the judgments leniently
func (r *OrchestratorResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items     []AgentOutputItem `json:"items"`
		Judgments json.RawMessage   `json:"judgments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = OrchestratorResponse{Items: raw.Items}
	if isAbsent(raw.Judgments) {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw.Judgments, &entries); err != nil {
		r.dropped = append(r.dropped, "judgments")
		return nil
	}
	for i, rawEntry := range entries {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			r.dropped = append(r.dropped, fmt.Sprintf("judgments[%d]", i))
			continue
		}
		name, okName := rawString(entry["agent_name"])
		score, okScore := rawNumber(entry["overall_score"])
		if !okName || !okScore || name == "" || score == nil {
			r.dropped = append(r.dropped, fmt.Sprintf("judgments[%d]", i))
			continue
		}
		persona, _ := rawString(entry["persona"])
		summary, _ := rawString(entry["summary"])
		r.Judgments = append(r.Judgments, AgentJudgment{
			AgentName:    name,
			Persona:      persona,
			OverallScore: *score,
			Summary:      summary,
		})
	}
	return nil
}

// UnmarshalJSON keeps every usable field of an item and records the ones
// that had the wrong type
func (it *AgentOutputItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*it = AgentOutputItem{}
	for key, dst := range map[string]*string{
		"agent_name":  &it.AgentName,
		"image":       &it.Image,
		"code":        &it.Code,
		"text":        &it.Text,
		"persona":     &it.Persona,
		"created_at":  &it.CreatedAt,
		"style_notes": &it.StyleNotes,
	} {
		v, ok := rawString(fields[key])
		if !ok {
			it.dropped = append(it.dropped, key)
			continue
		}
		*dst = v
	}

	score, ok := rawNumber(fields["score"])
	if !ok {
		it.dropped = append(it.dropped, "score")
	}
	it.Score = score
	sort.Strings(it.dropped)
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rawString reads an optional string. Absent and null are empty and fine.
func rawString(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// rawNumber reads an optional number. Numeric strings are accepted.
func rawNumber(raw json.RawMessage) (*float64, bool) {
	if isAbsent(raw) {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f, true
		}
	}
	return nil, false
}
