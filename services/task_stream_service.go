package services

import (
	"encoding/json"
	"log"
	"sync"

	"taskdeck/broker"
	"taskdeck/config"
	"taskdeck/database"
	"taskdeck/models"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// TaskStreamServiceInterface is the live-subscription surface: a standing,
// owner-scoped query that delivers the full current task list on every
// change. Subscribers always receive complete snapshots, never deltas.
type TaskStreamServiceInterface interface {
	Start(cfg config.Config)
	Stop()
	Subscribe(ownerID uuid.UUID) (<-chan []models.Task, func())
	NotifyOwner(ownerID string)
}

type taskStreamSubscriber struct {
	ownerID uuid.UUID
	ch      chan []models.Task
}

type TaskStreamService struct {
	db          *database.Database
	taskService TaskServiceInterface

	mu          sync.RWMutex
	subscribers map[int]*taskStreamSubscriber
	nextID      int

	consumer  *broker.Consumer
	stopChan  chan struct{}
	isRunning bool
}

func NewTaskStreamService(db *database.Database, taskService TaskServiceInterface) *TaskStreamService {
	return &TaskStreamService{
		db:          db,
		taskService: taskService,
		subscribers: make(map[int]*taskStreamSubscriber),
		stopChan:    make(chan struct{}),
	}
}

// Start connects the stream to the broker. Without it Subscribe still works
// but only NotifyOwner calls trigger deliveries.
func (s *TaskStreamService) Start(cfg config.Config) {
	if s.isRunning {
		return
	}
	s.isRunning = true

	consumer, err := broker.InitConsumer(cfg, []string{broker.TaskSubject}, "task-stream-group")
	if err != nil {
		log.Printf("Warning: Failed to initialize task stream consumer: %v", err)
		log.Println("Task stream will only deliver in-process notifications")
		return
	}
	s.consumer = consumer

	go s.processEvents(consumer.GetMessageChannel())
	log.Println("Task stream service started")
}

func (s *TaskStreamService) Stop() {
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.mu.Lock()
	for id, sub := range s.subscribers {
		close(sub.ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()
}

// Subscribe registers a live query for the owner. The channel gets an
// initial snapshot, then the full ordered list after every change to the
// owner's tasks. The returned cancel releases the subscription and closes
// the channel; it is safe to call more than once.
func (s *TaskStreamService) Subscribe(ownerID uuid.UUID) (<-chan []models.Task, func()) {
	sub := &taskStreamSubscriber{
		ownerID: ownerID,
		ch:      make(chan []models.Task, 8),
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = sub
	s.mu.Unlock()

	// Initial snapshot so the subscriber never starts empty-handed.
	if tasks, err := s.ownerTasks(ownerID); err == nil {
		sub.ch <- tasks
	} else {
		log.Printf("Failed to load initial snapshot for %s: %v", ownerID, err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub.ch)
			}
			s.mu.Unlock()
		})
	}

	return sub.ch, cancel
}

// NotifyOwner re-queries the owner's list and fans the snapshot out to
// every matching subscriber. Slow subscribers have snapshots dropped rather
// than blocking delivery; the next notification supersedes anyway.
func (s *TaskStreamService) NotifyOwner(ownerID string) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		log.Printf("Task stream: invalid owner id %q: %v", ownerID, err)
		return
	}

	s.mu.RLock()
	hasSubscribers := false
	for _, sub := range s.subscribers {
		if sub.ownerID == owner {
			hasSubscribers = true
			break
		}
	}
	s.mu.RUnlock()

	if !hasSubscribers {
		return
	}

	tasks, err := s.ownerTasks(owner)
	if err != nil {
		log.Printf("Task stream: failed to query tasks for %s: %v", owner, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		if sub.ownerID != owner {
			continue
		}
		select {
		case sub.ch <- tasks:
		default:
			log.Printf("Task stream: subscriber for %s is slow, dropping snapshot", owner)
		}
	}
}

func (s *TaskStreamService) processEvents(messages chan *nats.Msg) {
	for {
		select {
		case <-s.stopChan:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			s.handleTaskEvent(msg.Data)
		}
	}
}

func (s *TaskStreamService) handleTaskEvent(data []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Task stream: error parsing event: %v", err)
		return
	}

	userID, ok := payload["user_id"].(string)
	if !ok || userID == "" {
		log.Printf("Task stream: event without user_id, ignoring")
		return
	}

	s.NotifyOwner(userID)
}

func (s *TaskStreamService) ownerTasks(ownerID uuid.UUID) ([]models.Task, error) {
	return s.taskService.GetTasks(s.db, map[string]interface{}{
		"user_id": ownerID.String(),
	})
}

var TaskStreamServiceInstance TaskStreamServiceInterface
