package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// EventRepository implements event persistence using GORM
type EventRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{
		db:  db,
		log: logger.Repository("event"),
	}
}

// Create creates a new campaign event
func (r *EventRepository) Create(ev *event.Event) error {
	r.log.Debug("Creating event", "name", ev.Name)

	if err := r.db.Create(ev).Error; err != nil {
		r.log.Error("Failed to create event", "name", ev.Name, "error", err)
		return fmt.Errorf("failed to create event: %w", err)
	}

	r.log.Info("Event created successfully", "event_id", ev.ID, "name", ev.Name)
	return nil
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(id uuid.UUID) (*event.Event, error) {
	r.log.Debug("Getting event by ID", "event_id", id)

	var ev event.Event
	if err := r.db.First(&ev, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "event", ID: id.String()}
		}
		r.log.Error("Failed to get event", "event_id", id, "error", err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &ev, nil
}

// GetAll retrieves all events ordered by creation time
func (r *EventRepository) GetAll() ([]*event.Event, error) {
	r.log.Debug("Getting all events")

	var events []*event.Event
	if err := r.db.Order("created_at DESC").Find(&events).Error; err != nil {
		r.log.Error("Failed to get events", "error", err)
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	return events, nil
}

// Update updates an existing event
func (r *EventRepository) Update(ev *event.Event) error {
	r.log.Debug("Updating event", "event_id", ev.ID)

	result := r.db.Model(&event.Event{}).Where("id = ?", ev.ID).Updates(ev)
	if result.Error != nil {
		r.log.Error("Failed to update event", "event_id", ev.ID, "error", result.Error)
		return fmt.Errorf("failed to update event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return &common.NotFoundError{Resource: "event", ID: ev.ID.String()}
	}

	r.log.Info("Event updated successfully", "event_id", ev.ID)
	return nil
}

// CreatePost creates a new post slot under an event
func (r *EventRepository) CreatePost(p *event.Post) error {
	r.log.Debug("Creating post", "event_id", p.EventID, "label", p.Label)

	if err := r.db.Create(p).Error; err != nil {
		r.log.Error("Failed to create post", "event_id", p.EventID, "error", err)
		return fmt.Errorf("failed to create post: %w", err)
	}

	r.log.Info("Post created successfully", "post_id", p.ID, "event_id", p.EventID)
	return nil
}

// GetPost retrieves a post slot by its ID
func (r *EventRepository) GetPost(id uuid.UUID) (*event.Post, error) {
	r.log.Debug("Getting post by ID", "post_id", id)

	var p event.Post
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "post", ID: id.String()}
		}
		r.log.Error("Failed to get post", "post_id", id, "error", err)
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &p, nil
}

// GetEventPosts retrieves all post slots of an event ordered by deadline
func (r *EventRepository) GetEventPosts(eventID uuid.UUID) ([]*event.Post, error) {
	r.log.Debug("Getting posts for event", "event_id", eventID)

	var posts []*event.Post
	if err := r.db.Where("event_id = ?", eventID).Order("deadline ASC").Find(&posts).Error; err != nil {
		r.log.Error("Failed to get event posts", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to get event posts: %w", err)
	}

	return posts, nil
}
