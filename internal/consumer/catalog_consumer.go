package consumer

import (
	"encoding/json"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogConsumer keeps the local class catalog and member directory in sync
// with the rest of the studio platform. The booking core treats both tables
// as read-only; this consumer is their single writer.
type CatalogConsumer struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCatalogConsumer(db *gorm.DB, log zerolog.Logger) *CatalogConsumer {
	return &CatalogConsumer{db: db, log: log}
}

// Start listens for catalog and member messages and upserts them locally.
func (cc *CatalogConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(msg)
		}
		cc.log.Info().Msg("catalog consumer channel closed")
	}()
}

func (cc *CatalogConsumer) handleMessage(msg amqp.Delivery) {
	switch {
	case strings.HasPrefix(msg.RoutingKey, "class."):
		cc.syncClass(msg)
	case strings.HasPrefix(msg.RoutingKey, "member."):
		cc.syncMember(msg)
	default:
		cc.log.Warn().Str("routing_key", msg.RoutingKey).Msg("unexpected routing key")
		msg.Nack(false, false)
	}
}

func (cc *CatalogConsumer) syncClass(msg amqp.Delivery) {
	var class models.ClassSession
	if err := json.Unmarshal(msg.Body, &class); err != nil {
		cc.log.Error().Err(err).Msg("unmarshal class message")
		msg.Nack(false, false)
		return
	}

	result := cc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "capacity", "updated_at"}),
	}).Create(&class)
	if result.Error != nil {
		cc.log.Error().Err(result.Error).Str("class_id", class.ID).Msg("upsert class")
		msg.Nack(false, true) // requeue
		return
	}

	cc.log.Debug().Str("class_id", class.ID).Int("capacity", class.Capacity).Msg("class synced")
	msg.Ack(false)
}

func (cc *CatalogConsumer) syncMember(msg amqp.Delivery) {
	var member models.Member
	if err := json.Unmarshal(msg.Body, &member); err != nil {
		cc.log.Error().Err(err).Msg("unmarshal member message")
		msg.Nack(false, false)
		return
	}

	result := cc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
	}).Create(&member)
	if result.Error != nil {
		cc.log.Error().Err(result.Error).Str("member_id", member.ID).Msg("upsert member")
		msg.Nack(false, true)
		return
	}

	cc.log.Debug().Str("member_id", member.ID).Msg("member synced")
	msg.Ack(false)
}
