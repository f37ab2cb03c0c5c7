package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const classifierInstruction = `Sos el clasificador de intenciones de un asistente de turnos.
Respondé solo con un objeto JSON con las claves "intent", "entities" y "fulfillmentText".
Intenciones posibles: "agendar_turno" (quiere reservar), "consultar_servicios" (pregunta por los servicios), "otro".
Para "agendar_turno" completá en "entities" las claves que aparezcan: "fecha" (YYYY-MM-DD), "horario" (HH:mm), "servicio", "nombre", "telefono".
"fulfillmentText" es una respuesta breve y amable en español, o vacío.`

// generator abstracts the model call so tests can stub it.
type generator interface {
	generate(ctx context.Context, text string) (string, error)
}

// GeminiClassifier classifies messages with a Gemini model in JSON mode.
type GeminiClassifier struct {
	client *genai.Client
	gen    generator
}

// NewGeminiClassifier creates a classifier using the given API key and model.
func NewGeminiClassifier(ctx context.Context, apiKey, modelID string) (*GeminiClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("intent: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("intent: failed to create gemini client: %w", err)
	}
	return &GeminiClassifier{
		client: client,
		gen:    &geminiGenerator{client: client, modelID: modelID},
	}, nil
}

// Classify asks the model for an intent and parses its JSON answer.
func (c *GeminiClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("intent: empty text")
	}
	raw, err := c.gen.generate(ctx, text)
	if err != nil {
		return nil, err
	}
	return parseResult(raw)
}

// Close releases resources held by the Gemini client.
func (c *GeminiClassifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

type geminiGenerator struct {
	client  *genai.Client
	modelID string
}

func (g *geminiGenerator) generate(ctx context.Context, text string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(classifierInstruction))

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("intent: gemini classify failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("intent: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("intent: gemini returned empty content")
	}
	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	return out.String(), nil
}

// parseResult decodes the model's JSON, tolerating a fenced code block, and
// normalizes entity keys and values.
func parseResult(raw string) (*Result, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("intent: empty classifier response")
	}

	var res Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("intent: decode classifier response: %w", err)
	}
	res.Intent = strings.ToLower(strings.TrimSpace(res.Intent))
	if res.Intent == "" {
		return nil, errors.New("intent: classifier response has no intent")
	}
	entities := make(map[string]string, len(res.Entities))
	for k, v := range res.Entities {
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		entities[key] = val
	}
	res.Entities = entities
	res.FulfillmentText = strings.TrimSpace(res.FulfillmentText)
	return &res, nil
}
