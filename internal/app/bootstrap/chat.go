package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/turnosbot/turnos/internal/config"
	"github.com/turnosbot/turnos/internal/intent"
	"github.com/turnosbot/turnos/internal/transport"
	"github.com/turnosbot/turnos/pkg/logging"
)

// BuildClassifier wires the optional Gemini classifier. It returns nil (and
// no error) when no API key is configured.
func BuildClassifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*intent.GeminiClassifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	classifier, err := intent.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: gemini classifier: %w", err)
	}
	logger.Info("intent classifier enabled", "model", cfg.GeminiModel)
	return classifier, nil
}

// BuildChatQueue returns an SQS queue when CHAT_QUEUE_URL is set and an
// in-process queue otherwise.
func BuildChatQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (transport.Queue, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	queueURL := strings.TrimSpace(cfg.ChatQueueURL)
	if queueURL == "" {
		logger.Info("chat queue: in-memory", "buffer", cfg.ChatQueueBuffer)
		return transport.NewMemoryQueue(cfg.ChatQueueBuffer), nil
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	logger.Info("chat queue: sqs", "queue_url", queueURL)
	return transport.NewSQSQueue(client, queueURL), nil
}
