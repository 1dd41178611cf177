package services

import (
	"encoding/json"
	"log"
	"time"

	"taskdeck/broker"
	"taskdeck/database"
	"taskdeck/models"
)

type EventDispatcherServiceInterface interface {
	Start()
	Stop()
	ProcessPendingEvents()
}

// EventDispatcherService drains the outbox: pending Event rows are published
// on their NATS subject and marked dispatched. When NATS is unavailable the
// task stream is notified directly so live views keep converging in-process.
type EventDispatcherService struct {
	db        *database.Database
	streams   TaskStreamServiceInterface
	isRunning bool
	ticker    *time.Ticker
	stopChan  chan struct{}
}

func NewEventDispatcherService(db *database.Database, streams TaskStreamServiceInterface) *EventDispatcherService {
	return &EventDispatcherService{
		db:       db,
		streams:  streams,
		ticker:   time.NewTicker(1 * time.Second),
		stopChan: make(chan struct{}),
	}
}

func (s *EventDispatcherService) Start() {
	if s.isRunning {
		return
	}
	s.isRunning = true
	go s.ProcessPendingEvents()
}

func (s *EventDispatcherService) Stop() {
	if !s.isRunning {
		return
	}
	s.isRunning = false
	s.ticker.Stop()
	close(s.stopChan)
}

func (s *EventDispatcherService) ProcessPendingEvents() {
	for {
		select {
		case <-s.stopChan:
			// A stopped ticker never closes its channel, so the loop exits
			// through here.
			return
		case <-s.ticker.C:
		}

		var events []models.Event
		if err := s.db.DB.Where("dispatched = ?", false).Find(&events).Error; err != nil {
			log.Printf("Error fetching events: %v", err)
			continue
		}

		for _, event := range events {
			if err := s.dispatchEvent(event); err != nil {
				log.Printf("Error dispatching event %s: %v", event.ID, err)
				continue
			}
		}
	}
}

func (s *EventDispatcherService) dispatchEvent(event models.Event) error {
	var dataMap map[string]interface{}
	if err := json.Unmarshal(event.Data, &dataMap); err != nil {
		log.Printf("Warning: Could not unmarshal event data: %v", err)
		dataMap = make(map[string]interface{})
	}

	payload := map[string]interface{}{
		"event_id":  event.ID.String(),
		"timestamp": event.Timestamp,
		"type":      event.Event,
		"entity":    event.Entity,
		"data":      dataMap,
	}

	// Promote the owner so consumers can route without digging into data.
	if userID, exists := dataMap["user_id"]; exists {
		payload["user_id"] = userID
	}
	if taskID, exists := dataMap["task_id"]; exists {
		payload["task_id"] = taskID
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// The event type doubles as the NATS subject (task.created, ...).
	if err := broker.PublishMessage(event.Event, jsonData); err != nil {
		if err != broker.ErrProducerNotInitialized {
			return err
		}
		// Degraded mode: no broker, deliver to in-process subscribers only.
		if s.streams != nil && event.Entity == "task" {
			if userID, ok := dataMap["user_id"].(string); ok {
				s.streams.NotifyOwner(userID)
			}
		}
	}

	now := time.Now()
	return s.db.DB.Model(&event).Updates(map[string]interface{}{
		"dispatched":    true,
		"dispatched_at": now,
		"status":        "completed",
	}).Error
}

var EventDispatcherServiceInstance EventDispatcherServiceInterface
