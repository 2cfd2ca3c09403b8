package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/notify"
	"github.com/shreyaskr77/Solvathon/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("event requires title and date")
)

// EventInput carries the fields of a create-event request.
type EventInput struct {
	Title         string
	Description   string
	Date          time.Time
	Location      string
	TargetCourses []string
}

// EventService manages scheduled departmental events.
type EventService interface {
	Create(ctx context.Context, creatorID primitive.ObjectID, in EventInput) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type eventService struct {
	eventsRepo repository.EventRepository
	sink       EventSink
}

// NewEventService creates a new instance of eventService.
func NewEventService(eventsRepo repository.EventRepository, sink EventSink) EventService {
	return &eventService{eventsRepo: eventsRepo, sink: sink}
}

func (s *eventService) Create(ctx context.Context, creatorID primitive.ObjectID, in EventInput) (*domain.Event, error) {
	if strings.TrimSpace(in.Title) == "" || in.Date.IsZero() {
		return nil, ErrInvalidEvent
	}

	event := &domain.Event{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Date:          in.Date,
		Location:      in.Location,
		CreatedBy:     creatorID,
		TargetCourses: in.TargetCourses,
	}

	id, err := s.eventsRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id

	s.sink.Enqueue(notify.EventScheduled{Event: *event})
	return event, nil
}

func (s *eventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.eventsRepo.List(ctx)
}

func (s *eventService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.eventsRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}
