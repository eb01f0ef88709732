// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"bant-agent-be/internal/dto"
	"bant-agent-be/internal/entity"
	"bant-agent-be/internal/pkg/mailer"
	"bant-agent-be/internal/repository/contract"
	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/events"
	pkgnats "bant-agent-be/pkg/nats"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub          *gochannel.GoChannel
	topicName       string
	sessionStore    contract.SessionStore
	resultRepo      contract.QualificationResultRepository // nil without a database
	natsPub         *pkgnats.Publisher                     // nil when NATS is down
	emailService    mailer.IEmailService
	reportRecipient string
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	sessionStore contract.SessionStore,
	resultRepo contract.QualificationResultRepository,
	natsPub *pkgnats.Publisher,
	emailService mailer.IEmailService,
	reportRecipient string,
) IConsumerService {
	return &consumerService{
		pubSub:          pubSub,
		topicName:       topicName,
		sessionStore:    sessionStore,
		resultRepo:      resultRepo,
		natsPub:         natsPub,
		emailService:    emailService,
		reportRecipient: reportRecipient,
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
	var payload dto.InterviewCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal completion message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing completed interview for session %s (deal %s)", payload.SessionID, payload.DealID)

	session, err := cs.sessionStore.Get(ctx, payload.SessionID)
	if err != nil {
		log.Printf("[ERROR] Failed to load session %s: %v", payload.SessionID, err)
		msg.Ack() // Session expired, nothing to recover
		return
	}
	if session.Record.Score == nil {
		log.Printf("[ERROR] Session %s completed without a score", payload.SessionID)
		msg.Ack()
		return
	}

	score := session.Record.Score

	if cs.resultRepo != nil {
		result := &entity.QualificationResult{
			Id:        uuid.New(),
			SessionID: session.SessionID,
			DealID:    session.DealID,
			Stage:     score.Stage,
			Total:     score.Total,
			Record:    session.Record,
			CreatedAt: time.Now(),
		}
		if err := cs.resultRepo.Create(ctx, result); err != nil {
			log.Printf("[ERROR] Failed to persist qualification result: %v", err)
			msg.Nack() // Retriable: the database may come back
			return
		}
	}

	if cs.natsPub != nil {
		event := events.NewInterviewCompleted(session.SessionID, session.DealID, score.Stage, score.Total)
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to forward completion event to NATS: %v", err)
		}
	}

	if cs.emailService != nil && cs.reportRecipient != "" {
		report := renderScoreTable(score)
		if err := cs.emailService.SendQualificationReport(
			cs.reportRecipient, session.DealID, score.Stage, score.Total, report,
		); err != nil {
			log.Printf("[WARN] Failed to send qualification report: %v", err)
		}
	}

	log.Printf("[SUCCESS] Interview processed: deal %s scored %d (%s)", session.DealID, score.Total, score.Stage)
	msg.Ack()
}

func renderScoreTable(score *bant.BantScore) string {
	row := func(name string, ss bant.SlotScore) string {
		return fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%.1f</td></tr>", name, ss.Value, ss.Confidence)
	}
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="5"><tr><th>Slot</th><th>Score</th><th>Confidence</th></tr>`)
	b.WriteString(row("Budget", score.Budget))
	b.WriteString(row("Authority", score.Authority))
	b.WriteString(row("Need", score.Need))
	b.WriteString(row("Timing", score.Timing))
	b.WriteString("</table>")
	return b.String()
}
