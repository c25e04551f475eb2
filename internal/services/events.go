package services

import (
	"context"
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// publish sends a domain event after the request's own work has committed.
// Broker failures are logged and never fail the request.
func publish(ctx context.Context, p events.Publisher, eventType, key string, data any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, events.New(eventType, key, data)); err != nil {
		logger.WithFields(logrus.Fields{"event": eventType, "key": key}).
			Warn("failed to publish event: ", err)
	}
}
