package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"
)

// ErrGenerationFailed covers any failure of the completion request or of
// parsing its structured output.
var ErrGenerationFailed = errors.New("failed to generate CV data")

//go:embed cv_schema.json
var cvSchemaJSON []byte

const systemPrompt = `You are an expert AI assistant with the capability to generate professional resumes.
Your task is to create a resume that is well-organized, polished, and written from the first-person perspective.
The resume should present the individual's skills, experience, and achievements in a confident and professional tone.
If any necessary details are missing from the provided information, generate content that fits naturally and enhances the overall presentation.
Ensure that the resume is suitable for applying to various technical positions and reflects a high standard of quality.`

const (
	generationTemperature = 0.7
	generationMaxTokens   = 1500
	toolName              = "generate_cv"
)

type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Synthesizer turns an enriched profile document into structured CV content
// through the completion endpoint's function-calling interface.
type Synthesizer struct {
	client completionAPI
	model  string
}

func NewSynthesizer(apiKey, model string) *Synthesizer {
	return &Synthesizer{client: openai.NewClient(apiKey), model: model}
}

// NewSynthesizerWithClient is used by tests to substitute the API client.
func NewSynthesizerWithClient(client completionAPI, model string) *Synthesizer {
	return &Synthesizer{client: client, model: model}
}

// Synthesize sends the profile as the user message and returns the parsed
// structured content, validated against the CV schema. The profile's display
// name and link are filled into the result when the model leaves them out.
func (s *Synthesizer) Synthesize(ctx context.Context, profile map[string]any) (map[string]any, error) {
	userMessage, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(userMessage)},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        toolName,
				Description: "Generate structured resume content from profile data",
				Parameters:  json.RawMessage(cvSchemaJSON),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: toolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: completion returned no tool call", ErrGenerationFailed)
	}

	var content map[string]any
	arguments := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(arguments), &content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	fillPersonalInfo(content, profile)

	if err := validate(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return content, nil
}

// fillPersonalInfo backfills name and profile link from the fetched data.
func fillPersonalInfo(content, profile map[string]any) {
	info, ok := content["personal_information"].(map[string]any)
	if !ok {
		info = map[string]any{}
		content["personal_information"] = info
	}
	if name, _ := info["name"].(string); name == "" {
		if name, _ := profile["name"].(string); name != "" {
			info["name"] = name
		} else if login, _ := profile["login"].(string); login != "" {
			info["name"] = login
		}
	}
	if link, _ := info["github_profile_link"].(string); link == "" {
		if url, _ := profile["html_url"].(string); url != "" {
			info["github_profile_link"] = url
		}
	}
}

func validate(content map[string]any) error {
	schemaLoader := gojsonschema.NewBytesLoader(cvSchemaJSON)
	docLoader := gojsonschema.NewGoLoader(content)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	var msgs []string
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
