// Package workflow starts the back-office BPMN process for accepted offers.
package workflow

import (
	"context"
	"fmt"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/service"
)

// ProcessStarter is the Zeebe call the publisher makes. camunda.Client
// implements it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

type Publisher struct {
	starter   ProcessStarter
	processID string
	log       logger.Logger
}

func NewPublisher(starter ProcessStarter, processID string, log logger.Logger) *Publisher {
	return &Publisher{
		starter:   starter,
		processID: processID,
		log:       log.WithFields(map[string]interface{}{"processId": processID}),
	}
}

// PublishSanction starts one process instance with the event as variables.
func (p *Publisher) PublishSanction(ctx context.Context, event service.SanctionEvent) error {
	key, err := p.starter.StartProcess(ctx, p.processID, event)
	if err != nil {
		return fmt.Errorf("failed to start %s for %s: %w", p.processID, event.Reference, err)
	}
	p.log.Info("process instance created", map[string]interface{}{
		"processInstanceKey": key,
		"reference":          event.Reference,
		"sessionId":          event.SessionID,
	})
	return nil
}
