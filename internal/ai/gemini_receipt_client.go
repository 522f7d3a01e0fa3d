package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const receiptPrompt = `You read bank transfer receipts for a car classifieds site.
Find the amount that was transferred in the attached receipt.
Answer with the number only, wrapped in dollar signs, for example $120$ or $49.50$.
Do not include the currency, words, spaces or line breaks.
If no amount is visible answer $0$.`

// ReceiptClient asks Gemini for the amount printed on a payment receipt.
type ReceiptClient struct {
	client *genai.Client
	model  string
}

func NewReceiptClient(ctx context.Context, apiKey, model string) (*ReceiptClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &ReceiptClient{client: client, model: model}, nil
}

func (c *ReceiptClient) ReadAmount(ctx context.Context, data []byte, contentType string) (float64, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	log := zlog.Ctx(ctx)
	start := time.Now()
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(receiptPrompt),
			genai.NewPartFromBytes(data, contentType),
		}, genai.RoleUser),
	}
	temp := float32(0)
	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return 0, fmt.Errorf("gemini generate: %w", err)
	}
	raw := res.Text()
	amount, err := ParseAmount(raw)
	if err != nil {
		text := strings.ReplaceAll(raw, "\n", " ")
		if len(text) > 80 {
			text = text[:80]
		}
		log.Debug().Str("text", text).Msg("receipt amount unparsable")
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: no amount on receipt", ErrParseFailed)
	}
	log.Debug().
		Str("model", c.model).
		Float64("amount", amount).
		Int64("ms", time.Since(start).Milliseconds()).
		Msg("receipt amount read")
	return amount, nil
}
