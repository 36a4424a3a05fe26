// Package gemini implements the reasoning provider on the Google Gemini
// API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	apperrors "github.com/sweetpotato0/tripflow/errors"
	"github.com/sweetpotato0/tripflow/message"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey string
	Model  string
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey: apiKey,
		Model:  "gemini-2.0-flash",
	}
}

// Provider implements the agent.LLMClient interface for Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider using the official SDK
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements agent.LLMClient. The Gemini API carries no tool-call
// ids, so fresh ids are synthesized for every function call the model
// emits; the ids in stored history are dropped on the way in for the same
// reason.
func (p *Provider) Generate(ctx context.Context, messages []*message.Message, tools []map[string]any) (*message.Message, error) {
	gm := p.client.GenerativeModel(p.config.Model)

	if decls, err := toolDeclarations(tools); err != nil {
		return nil, err
	} else if len(decls) > 0 {
		gm.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	history, last, err := convertMessages(messages, gm)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, fmt.Errorf("conversation has no sendable message")
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", apperrors.ErrProviderUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned from gemini")
	}

	var text strings.Builder
	var toolCalls []message.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			toolCalls = append(toolCalls, message.ToolCall{
				ID:   "call-" + uuid.NewString(),
				Name: v.Name,
				Args: v.Args,
			})
		}
	}

	reply := message.NewMessage(message.RoleAssistant, text.String())
	reply.ToolCalls = toolCalls
	return reply, nil
}

// convertMessages maps the thread onto genai content. System messages
// become the model's system instruction; the final entry is returned
// separately because the chat API sends it rather than replaying it.
func convertMessages(messages []*message.Message, gm *genai.GenerativeModel) ([]*genai.Content, *genai.Content, error) {
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}

		case message.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})

		case message.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}

		case message.RoleTool:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.ToolName,
					Response: toolResponsePayload(msg.Content),
				}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, nil, nil
	}
	return contents[:len(contents)-1], contents[len(contents)-1], nil
}

// toolResponsePayload keeps structured results structured; anything else is
// wrapped under a result key.
func toolResponsePayload(content string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err == nil {
		return parsed
	}
	return map[string]any{"result": content}
}

// toolDeclarations converts advertised JSON schemas into genai function
// declarations.
func toolDeclarations(tools []map[string]any) ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("tool schema missing function object")
		}
		name, _ := fn["name"].(string)
		description, _ := fn["description"].(string)
		if name == "" {
			return nil, fmt.Errorf("tool schema missing function name")
		}

		decl := &genai.FunctionDeclaration{Name: name, Description: description}
		if params, ok := fn["parameters"].(map[string]any); ok {
			schema, err := schemaFromMap(params)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", name, err)
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func schemaFromMap(m map[string]any) (*genai.Schema, error) {
	schema := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		schema.Type = schemaType(t)
	}
	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := m["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			pm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s is not an object", name)
			}
			ps, err := schemaFromMap(pm)
			if err != nil {
				return nil, err
			}
			schema.Properties[name] = ps
		}
	}
	if required, ok := m["required"].([]string); ok {
		schema.Required = required
	} else if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if enum, ok := m["enum"].([]string); ok {
		schema.Enum = enum
	}
	return schema, nil
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
