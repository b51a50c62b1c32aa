package generator

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/presbrey/ollamafarm"
)

type ollamaGenerator struct {
	farm   *ollamafarm.Farm
	model  string
	logger *Logger.Logger
}

// NewOllama builds a Generator that streams from a local ollama
// deployment. Multiple server URLs may be registered; requests go to
// the first one currently online.
func NewOllama(serverURLs []string, model string, logger *Logger.Logger) Generator {
	farm := ollamafarm.New()
	for _, u := range serverURLs {
		if err := farm.RegisterURL(u, nil); err != nil {
			logger.Warnf("ollama server %s not registered: %v", u, err)
		}
	}
	return &ollamaGenerator{
		farm:   farm,
		model:  model,
		logger: logger,
	}
}

// Stream implements Generator.
func (o *ollamaGenerator) Stream(ctx context.Context, input, systemPrompt string) (<-chan string, error) {
	msgs := make([]api.Message, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: input})

	out := make(chan string, 32)
	go func() {
		defer close(out)
		if err := o.chat(ctx, msgs, out); err != nil {
			o.logger.Errorf("ollama stream failed: %v", err)
			select {
			case out <- Apology:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (o *ollamaGenerator) chat(ctx context.Context, msgs []api.Message, out chan<- string) error {
	server := o.farm.First(&ollamafarm.Where{Offline: false})
	if server == nil {
		return fmt.Errorf("no ollama server online for model %s", o.model)
	}
	stream := true
	req := api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
	}
	return server.Client().Chat(ctx, &req, func(cr api.ChatResponse) error {
		if cr.Message.Content == "" {
			return nil
		}
		select {
		case out <- cr.Message.Content:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
