package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompletionAPI struct {
	gotReq openai.ChatCompletionRequest
	resp   openai.ChatCompletionResponse
	err    error
}

func (s *stubCompletionAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func toolCallResponse(arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{{
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "generate_cv", Arguments: arguments},
				}},
			},
		}},
	}
}

func validArguments() string {
	return `{
		"personal_information": {"name": "The Octocat"},
		"summary": "Engineer with open source experience.",
		"skills": ["Go", "Docker"],
		"projects": [{"name": "hello-world", "description": "Demo repo"}]
	}`
}

func octocatProfile() map[string]any {
	return map[string]any{
		"login":    "octocat",
		"name":     "The Octocat",
		"html_url": "https://github.com/octocat",
	}
}

func TestSynthesize(t *testing.T) {
	stub := &stubCompletionAPI{resp: toolCallResponse(validArguments())}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	content, err := s.Synthesize(context.Background(), octocatProfile())
	require.NoError(t, err)

	assert.Equal(t, "Engineer with open source experience.", content["summary"])
	info := content["personal_information"].(map[string]any)
	assert.Equal(t, "The Octocat", info["name"])
	assert.Equal(t, "https://github.com/octocat", info["github_profile_link"], "link is backfilled from the profile")

	// The request carries the profile, the forced tool and the tuning knobs.
	assert.Equal(t, "gpt-4o", stub.gotReq.Model)
	assert.InDelta(t, 0.7, stub.gotReq.Temperature, 0.001)
	assert.Equal(t, 1500, stub.gotReq.MaxTokens)
	require.Len(t, stub.gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, stub.gotReq.Messages[0].Role)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.gotReq.Messages[1].Content), &sent))
	assert.Equal(t, "octocat", sent["login"])

	require.Len(t, stub.gotReq.Tools, 1)
	assert.Equal(t, "generate_cv", stub.gotReq.Tools[0].Function.Name)
}

func TestSynthesizeBackfillsNameFromLogin(t *testing.T) {
	args := `{
		"personal_information": {},
		"summary": "Engineer.",
		"skills": ["Go"],
		"projects": [{"name": "p"}]
	}`
	stub := &stubCompletionAPI{resp: toolCallResponse(args)}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	content, err := s.Synthesize(context.Background(), map[string]any{"login": "octocat"})
	require.NoError(t, err)

	info := content["personal_information"].(map[string]any)
	assert.Equal(t, "octocat", info["name"])
}

func TestSynthesizeAPIError(t *testing.T) {
	stub := &stubCompletionAPI{err: errors.New("rate limited")}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	_, err := s.Synthesize(context.Background(), octocatProfile())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestSynthesizeNoToolCall(t *testing.T) {
	stub := &stubCompletionAPI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: "plain text instead of a tool call"},
		}},
	}}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	_, err := s.Synthesize(context.Background(), octocatProfile())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestSynthesizeMalformedArguments(t *testing.T) {
	stub := &stubCompletionAPI{resp: toolCallResponse(`{"personal_information": `)}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	_, err := s.Synthesize(context.Background(), octocatProfile())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestSynthesizeSchemaViolation(t *testing.T) {
	// Missing the required summary/skills/projects fields.
	stub := &stubCompletionAPI{resp: toolCallResponse(`{"personal_information": {"name": "x"}}`)}
	s := NewSynthesizerWithClient(stub, "gpt-4o")

	_, err := s.Synthesize(context.Background(), octocatProfile())
	assert.ErrorIs(t, err, ErrGenerationFailed)
}
