package service

import (
	"context"

	"github.com/asistencia-app/attendance-service/internal/domain"
	"github.com/asistencia-app/attendance-service/internal/events"
)

func emit(ctx context.Context, dispatcher events.Dispatcher, eventType events.EventType, subjectID string, actor *domain.Session, payload any) {
	if dispatcher == nil {
		return
	}
	event := events.Event{Type: eventType, SubjectID: subjectID, Payload: payload}
	if actor != nil {
		actorID := actor.UserID
		event.ActorID = &actorID
	}
	dispatcher.Publish(ctx, event)
}
