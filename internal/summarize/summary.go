package summarize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	openai "github.com/sashabaranov/go-openai"
)

// StructuredSummary is the final minutes produced by the reduce phase.
// Its JSON field names are the schema the model is forced to fill.
type StructuredSummary struct {
	Summary        string   `json:"summary" jsonschema:"required,description=Narrative summary of the meeting that omits nothing from the extracts"`
	SummaryBullets []string `json:"summary_bullet" jsonschema:"required,description=Key points of the meeting"`
	Decisions      []string `json:"decisions" jsonschema:"required,description=Decisions made during the meeting other than tasks"`
	Tasks          []string `json:"tasks" jsonschema:"required,description=Tasks still to be done; never items already completed"`
}

// PartialSummary is the prose extract of one chunk.
type PartialSummary struct {
	ChunkIndex  int
	ExtractText string
}

// minutesSchema returns the JSON schema of StructuredSummary as a plain map,
// without the draft and id keys the function-calling endpoint rejects.
func minutesSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&StructuredSummary{})

	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("cannot encode minutes schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cannot decode minutes schema: %w", err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m, nil
}

// minutesTool builds the function tool the reduce request forces.
func minutesTool() (openai.Tool, error) {
	params, err := minutesSchema()
	if err != nil {
		return openai.Tool{}, err
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        minutesToolName,
			Description: minutesToolDescription,
			Parameters:  params,
		},
	}, nil
}

// minutesPayload mirrors StructuredSummary with pointers to detect missing keys.
type minutesPayload struct {
	Summary        *string   `json:"summary"`
	SummaryBullets *[]string `json:"summary_bullet"`
	Decisions      *[]string `json:"decisions"`
	Tasks          *[]string `json:"tasks"`
}

// parseSummary decodes a function-call argument string.
// Unknown keys are ignored; missing or mistyped keys are ErrParse.
func parseSummary(arguments string) (*StructuredSummary, error) {
	var p minutesPayload
	if err := json.Unmarshal([]byte(arguments), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var missing []string
	if p.Summary == nil {
		missing = append(missing, "summary")
	}
	if p.SummaryBullets == nil {
		missing = append(missing, "summary_bullet")
	}
	if p.Decisions == nil {
		missing = append(missing, "decisions")
	}
	if p.Tasks == nil {
		missing = append(missing, "tasks")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}

	return &StructuredSummary{
		Summary:        *p.Summary,
		SummaryBullets: *p.SummaryBullets,
		Decisions:      *p.Decisions,
		Tasks:          *p.Tasks,
	}, nil
}

// functionArguments returns the arguments of the minutes function call in msg.
// Both the tools and the legacy function_call response shapes are accepted.
func functionArguments(msg openai.ChatCompletionMessage) (string, error) {
	for _, call := range msg.ToolCalls {
		if call.Function.Name == minutesToolName {
			return call.Function.Arguments, nil
		}
	}
	if msg.FunctionCall != nil && msg.FunctionCall.Name == minutesToolName {
		return msg.FunctionCall.Arguments, nil
	}
	return "", fmt.Errorf("%w: response has no %s call", ErrParse, minutesToolName)
}

// String renders the minutes in the plain-text layout of the summary file.
func (s *StructuredSummary) String() string {
	var b strings.Builder
	b.WriteString("== Summary ==\n")
	b.WriteString(s.Summary)
	b.WriteString("\n\n== Bullet ==\n")
	writeItems(&b, s.SummaryBullets)
	b.WriteString("\n== Decisions ==\n")
	writeItems(&b, s.Decisions)
	b.WriteString("\n== Tasks ==\n")
	writeItems(&b, s.Tasks)
	return b.String()
}

func writeItems(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
