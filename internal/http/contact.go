package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/repository"
)

// Per-IP contact quota, enforced against stored messages.
const (
	contactQuota  = 5
	contactWindow = 15 * time.Minute
)

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=2,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Name, email, subject and a message of at least 10 characters are required")
		return
	}

	ip := clientIP(r)
	recent, err := s.contacts.CountRecentByIP(r.Context(), ip, time.Now().Add(-contactWindow))
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("contact quota check failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to submit message")
		return
	}
	if recent >= contactQuota {
		s.respondError(w, http.StatusTooManyRequests, "Too many messages, please try again later")
		return
	}

	msg, err := s.contacts.Create(r.Context(), domain.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		IP:      ip,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		s.logger.Error("store contact message failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to submit message")
		return
	}

	// Notification delivery is best effort; the stored message is the
	// source of truth.
	if s.cfg.ContactEmailTo != "" {
		body := fmt.Sprintf("From: %s <%s>\r\nSubject: %s\r\n\r\n%s", msg.Name, msg.Email, msg.Subject, msg.Message)
		if err := s.mail.Send(s.cfg.ContactEmailFrom, s.cfg.ContactEmailTo, "New contact message: "+msg.Subject, body); err != nil {
			s.logger.Warn("contact notification failed", zap.Error(err))
		}
	}

	s.respondMessage(w, http.StatusCreated, "Message received")
}
