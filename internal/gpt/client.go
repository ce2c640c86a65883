// internal/gpt/client.go
package gpt

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an experienced nutritionist. You estimate the contents and macros of a meal from a photo, always as honest min~max ranges, and answer strictly in the requested JSON format."

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  "gpt-4o",
	}
}

func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// Estimate sends the meal photo plus the prepared prompt to the model and
// returns its raw text answer. The model may ignore the formatting
// instructions; recovery from that lives with the caller, not here.
func (c *Client) Estimate(ctx context.Context, image []byte, mime string, prompt string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens:   900,
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from GPT API")
	}

	return resp.Choices[0].Message.Content, nil
}
