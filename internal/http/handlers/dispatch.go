package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"opschecklist/internal/logger"
	"opschecklist/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var dispatchAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dispatch_attempts_total",
		Help: "External notification delivery attempts, by channel and outcome",
	},
	[]string{"channel", "status"},
)

func init() {
	prometheus.MustRegister(dispatchAttempts)
}

// Dispatch is the stateless notification function: one request, one
// delivery attempt per requested channel. Email is always attempted;
// SMS and voice only when a phone number and the matching flag are
// present. Provider failures are logged with detail server-side and
// reported generically in the response.
func (h *Handler) Dispatch(c *gin.Context) {
	var req notify.Request
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.UserID == 0 || req.UserEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if _, err := mail.ParseAddress(req.UserEmail); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	title, message, err := renderMessage(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// bounds are in characters, not bytes
	if utf8.RuneCountInString(title) > notify.MaxTitleLen || utf8.RuneCountInString(message) > notify.MaxMessageLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title or message too long"})
		return
	}

	ctx := c.Request.Context()
	var channels []notify.ChannelResult
	anyOK := false

	// email is always attempted, and first
	emailErr := h.Email.SendEmail(ctx, req.UserEmail, title, message)
	channels = append(channels, notify.ChannelResult{Channel: "email", OK: emailErr == nil})
	if emailErr != nil {
		dispatchAttempts.WithLabelValues("email", "error").Inc()
		logger.Error("email delivery failed", "recipient", req.UserID, "error", emailErr)
	} else {
		dispatchAttempts.WithLabelValues("email", "ok").Inc()
		anyOK = true
	}

	if req.UserPhone != "" && req.SendSMS {
		smsErr := h.Text.SendSMS(ctx, req.UserPhone, title+": "+message)
		channels = append(channels, notify.ChannelResult{Channel: "sms", OK: smsErr == nil})
		if smsErr != nil {
			dispatchAttempts.WithLabelValues("sms", "error").Inc()
			logger.Error("sms delivery failed", "recipient", req.UserID, "error", smsErr)
		} else {
			dispatchAttempts.WithLabelValues("sms", "ok").Inc()
			anyOK = true
		}
	}

	if req.UserPhone != "" && req.SendCall {
		callErr := h.Text.SendCall(ctx, req.UserPhone, message)
		channels = append(channels, notify.ChannelResult{Channel: "call", OK: callErr == nil})
		if callErr != nil {
			dispatchAttempts.WithLabelValues("call", "error").Inc()
			logger.Error("voice delivery failed", "recipient", req.UserID, "error", callErr)
		} else {
			dispatchAttempts.WithLabelValues("call", "ok").Inc()
			anyOK = true
		}
	}

	if !anyOK {
		c.JSON(http.StatusOK, notify.Response{Success: false, Channels: channels, Error: "delivery failed"})
		return
	}
	c.JSON(http.StatusOK, notify.Response{Success: true, Channels: channels})
}

// renderMessage resolves the final title and message: either taken
// directly from the request, or rendered from the typed variant's
// template fields.
func renderMessage(req *notify.Request) (string, string, error) {
	if req.NotificationType == "" {
		if req.Title == "" || req.Message == "" {
			return "", "", fmt.Errorf("Missing required fields")
		}
		return req.Title, req.Message, nil
	}

	switch req.NotificationType {
	case notify.TypeChecklistAssigned:
		if req.ChecklistTitle == "" {
			return "", "", fmt.Errorf("Missing required fields")
		}
		title := "New checklist assigned"
		message := fmt.Sprintf("Checklist %q was assigned to the %s department.",
			req.ChecklistTitle, orUnknown(req.DepartmentName))
		return title, message, nil

	case notify.TypeChecklistCompleted:
		if req.ChecklistTitle == "" {
			return "", "", fmt.Errorf("Missing required fields")
		}
		title := "Checklist completed"
		message := fmt.Sprintf("%s has completed all tasks in %q.",
			orUnknown(req.EmployeeName), req.ChecklistTitle)
		return title, message, nil

	default:
		return "", "", fmt.Errorf("Unknown notification type")
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
