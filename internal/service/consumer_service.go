package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService rebuilds style embedding indexes off the request path.
// Imports publish a rebuild message; this worker embeds every reference
// image and swaps the style's index when all of them succeed.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	styleRepo contract.StyleRepository
	indexes   *index.Registry
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	styleRepo contract.StyleRepository,
	indexes *index.Registry,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		styleRepo: styleRepo,
		indexes:   indexes,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedStyleImagesMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal rebuild message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Rebuilding embedding index for style: %s", payload.StyleId)

	style, err := cs.styleRepo.GetStyle(ctx, payload.StyleId)
	if err != nil {
		var notFound *contract.StyleNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("[ERROR] Style not found: %s", payload.StyleId)
			msg.Ack() // Style deleted after the import? Ack.
			return
		}
		log.Printf("[ERROR] Failed to load style %s: %v", payload.StyleId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	embeddings, err := cs.indexes.Build(ctx, style)
	if err != nil {
		// The old index stays live; retrieval keeps failing closed or
		// serving the previous snapshot until a rebuild succeeds.
		log.Printf("[ERROR] Failed to build index for style %s: %v", payload.StyleId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Index rebuilt for style %s: %d embeddings", payload.StyleId, len(embeddings))
	msg.Ack()
}
