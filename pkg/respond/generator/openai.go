package generator

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/personifai/personifai/pkg/Logger"
)

type openAIGenerator struct {
	client openai.Client
	model  openai.ChatModel
	logger *Logger.Logger
}

// NewOpenAI builds a Generator backed by the OpenAI chat completions
// streaming API. model may be empty, in which case gpt-4o-mini is used.
func NewOpenAI(apiKey, model string, logger *Logger.Logger) Generator {
	m := openai.ChatModel(model)
	if model == "" {
		m = openai.ChatModelGPT4oMini
	}
	return &openAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
		logger: logger,
	}
}

// Stream implements Generator.
func (o *openAIGenerator) Stream(ctx context.Context, input, systemPrompt string) (<-chan string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(input))

	out := make(chan string, 32)
	go func() {
		defer close(out)
		stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Messages: msgs,
			Model:    o.model,
		})
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			o.logger.Errorf("openai stream failed: %v", err)
			select {
			case out <- Apology:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
