package prescreen

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"surveybridge/internal/errs"
)

const systemPrompt = `You are a skilled prescreening questionnaire designer. Your task is to generate a well-structured JSON-formatted questionnaire based on the given keyword, ensuring all questions are meaningful, clear, and non-binary. Follow these key guidelines:

Key Requirements:
- Generate 2-3 questions related to the provided keyword.
- Each question must have the following:
  * A unique 'question_id'.
  * A concise, clear 'question_text'.
  * A 'response_options' array containing a list of multiple response choices (avoid yes/no questions).
  * Each option in 'response_options' must contain:
    * 'option_text': Descriptive text for the option.
    * 'qualifies': A boolean flag indicating whether this response qualifies the respondent.
- Avoid yes/no answers or any binary responses unless explicitly necessary for the keyword.
- Include a 'qualification_criteria' section summarizing the qualification logic.

Ensure all output is in valid JSON format.

JSON Structure Example:
{
  "prescreening_questions": [
    {
      "question_id": 1,
      "question_text": "Which types of [KEYWORD] do you use or have access to?",
      "response_options": [
        { "option_text": "Brand A", "qualifies": true },
        { "option_text": "Brand B", "qualifies": false },
        { "option_text": "Other", "qualifies": true }
      ]
    }
  ],
  "qualification_criteria": [
    {
      "criteria": "Respondent qualifies if they select Brand A or Other.",
      "qualifies": true
    }
  ]
}`

// OpenAIGenerator asks a chat model for a JSON questionnaire.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey string, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.ChatModelGPT3_5Turbo
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		MaxTokens:   openai.Int(1000),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return nil, errs.Wrap(err, "chat completion")
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return []byte(completion.Choices[0].Message.Content), nil
}
