// internal/analyzer/schema.go
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/signalnine/netloginsight/internal/protocol"
)

const instructionTemplate = `You are an expert network engineer and security analyst.
Your job is to analyse logs from network devices (routers, switches, firewalls, access points and similar).

Analyse the following:
1. Key events: who did what (IP/user), where, when and how
2. Port status (Up/Down/Flapping)
3. Anomalies (unauthorized access, floods, DHCP errors, STP changes, high CPU and so on)
4. Remediation advice

Output must be a single JSON object that follows the provided schema.

For the field 'reportMarkdown' write a clean, readable Markdown summary report in %s using these sections:
- 🔍 Summary of key events
- 👤 Who did what (IP / MAC / Username)
- 🔌 Port status Up/Down
- ⚠️ Detected anomalies
- 🛠 Remediation advice
- 🧩 Risk and impact`

// Instruction returns the fixed system instruction with the report language filled in
func Instruction(language string) string {
	if strings.TrimSpace(language) == "" {
		language = "Thai"
	}
	return fmt.Sprintf(instructionTemplate, language)
}

// Schema is the structured-output schema format of the generateContent API
// (an OpenAPI subset with upper-case type names).
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Required         []string           `json:"required,omitempty"`
}

// ResponseSchema returns the fixed output schema sent with every request
func ResponseSchema() *Schema {
	integer := func(desc string) *Schema { return &Schema{Type: "INTEGER", Description: desc} }
	str := func(desc string) *Schema { return &Schema{Type: "STRING", Description: desc} }

	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"dashboardData": {
				Type: "OBJECT",
				Properties: map[string]*Schema{
					"totalLogs": integer("Estimated total number of log lines processed"),
					"severityCounts": {
						Type: "OBJECT",
						Properties: map[string]*Schema{
							"info":     integer(""),
							"warning":  integer(""),
							"error":    integer(""),
							"critical": integer(""),
						},
						PropertyOrdering: []string{"info", "warning", "error", "critical"},
						Required:         []string{"info", "warning", "error", "critical"},
					},
					"topEvents": {
						Type:        "ARRAY",
						Description: "Top 5 most frequent event types for charts",
						Items: &Schema{
							Type: "OBJECT",
							Properties: map[string]*Schema{
								"name":  str(""),
								"value": integer(""),
							},
							Required: []string{"name", "value"},
						},
					},
					"detectedAnomalies": {
						Type:        "ARRAY",
						Description: "List of critical anomalies found",
						Items:       str(""),
					},
					"portStatuses": {
						Type:        "ARRAY",
						Description: "Status of relevant ports mentioned in logs",
						Items: &Schema{
							Type: "OBJECT",
							Properties: map[string]*Schema{
								"port": str(""),
								"status": {
									Type: "STRING",
									Enum: []string{
										string(protocol.PortUp),
										string(protocol.PortDown),
										string(protocol.PortFlapping),
										string(protocol.PortUnknown),
									},
								},
								"details": str(""),
							},
							Required: []string{"port", "status"},
						},
					},
				},
				PropertyOrdering: []string{"totalLogs", "severityCounts", "topEvents", "detectedAnomalies", "portStatuses"},
				Required:         []string{"totalLogs", "severityCounts", "topEvents", "detectedAnomalies", "portStatuses"},
			},
			"reportMarkdown": str("Full detailed analysis report in Markdown format"),
		},
		PropertyOrdering: []string{"dashboardData", "reportMarkdown"},
		Required:         []string{"dashboardData", "reportMarkdown"},
	}
}

var (
	resultSchemaOnce sync.Once
	resultSchema     *gojsonschema.Schema
	resultSchemaErr  error

	validate = validator.New()
)

// compiledResultSchema reflects protocol.AnalysisResult into a JSON schema
// once and compiles it for validation.
func compiledResultSchema() (*gojsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		raw, err := jsonschema.Reflect(&protocol.AnalysisResult{}).MarshalJSON()
		if err != nil {
			resultSchemaErr = fmt.Errorf("reflect result schema: %w", err)
			return
		}
		resultSchema, resultSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	})
	return resultSchema, resultSchemaErr
}

// DecodeResult validates model output against the result schema and decodes it.
// Any deviation is reported as ErrMalformedResponse.
func DecodeResult(text []byte) (*protocol.AnalysisResult, error) {
	schema, err := compiledResultSchema()
	if err != nil {
		return nil, err
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	var result protocol.AnalysisResult
	if err := json.Unmarshal(text, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &result, nil
}
