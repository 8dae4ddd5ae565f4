package service

import (
	"slices"

	"lawgic/internal/model"
)

// Navigate switches the page a session shows. Messages are untouched.
func Navigate(session *model.Session, page model.Page) error {
	if page != model.PageLanding && page != model.PageChat {
		return model.NewValidationError("page", "unknown page "+string(page))
	}
	session.CurrentPage = page
	return nil
}

func ToggleSidebar(session *model.Session) {
	session.SidebarVisible = !session.SidebarVisible
}

// SetTopic records the chat view's topic filter. It only affects display.
func SetTopic(session *model.Session, topic string) error {
	if !slices.Contains(model.Topics, topic) {
		return model.NewValidationError("topic", "unknown topic "+topic)
	}
	session.TopicFilter = topic
	return nil
}
