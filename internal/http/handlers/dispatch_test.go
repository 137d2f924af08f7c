package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"opschecklist/internal/notify"

	"github.com/gin-gonic/gin"
)

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return f.err
}

type fakeText struct {
	sms     []string
	calls   []string
	smsErr  error
	callErr error
}

func (f *fakeText) SendSMS(ctx context.Context, phone, message string) error {
	f.sms = append(f.sms, phone)
	return f.smsErr
}

func (f *fakeText) SendCall(ctx context.Context, phone, message string) error {
	f.calls = append(f.calls, phone)
	return f.callErr
}

func doDispatch(t *testing.T, h *Handler, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/functions/notify", h.Dispatch)

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", "/functions/notify", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestDispatchMissingFields(t *testing.T) {
	h := &Handler{Email: &fakeEmail{}, Text: &fakeText{}}

	w, resp := doDispatch(t, h, notify.Request{UserEmail: "a@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Missing required fields" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestDispatchInvalidEmail(t *testing.T) {
	h := &Handler{Email: &fakeEmail{}, Text: &fakeText{}}

	w, resp := doDispatch(t, h, notify.Request{UserID: 1, UserEmail: "not-an-address"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Invalid email address" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestDispatchMessageTooLong(t *testing.T) {
	h := &Handler{Email: &fakeEmail{}, Text: &fakeText{}}

	cases := []notify.Request{
		{UserID: 1, UserEmail: "a@example.com", Title: strings.Repeat("t", 201), Message: "hi"},
		{UserID: 1, UserEmail: "a@example.com", Title: "hi", Message: strings.Repeat("m", 2001)},
	}
	for _, req := range cases {
		w, resp := doDispatch(t, h, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
		if resp["error"] != "Title or message too long" {
			t.Fatalf("error = %q", resp["error"])
		}
	}

	// the bound counts characters: a 150-char multibyte title is within it
	// even though it is 300 bytes
	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com",
		Title: strings.Repeat("é", 150), Message: "hi",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("multibyte title: status = %d, body %v; want 200", w.Code, resp)
	}
}

func TestDispatchUnknownType(t *testing.T) {
	h := &Handler{Email: &fakeEmail{}, Text: &fakeText{}}

	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com", NotificationType: "mystery", ChecklistTitle: "x",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp["error"] != "Unknown notification type" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestDispatchEmailOnly(t *testing.T) {
	email := &fakeEmail{}
	text := &fakeText{}
	h := &Handler{Email: email, Text: text}

	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com", Title: "Shift note", Message: "Walk-in freezer checked",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if resp["success"] != true {
		t.Fatalf("success = %v", resp["success"])
	}
	if len(email.sent) != 1 {
		t.Fatalf("emails sent = %d; want 1", len(email.sent))
	}
	if len(text.sms) != 0 || len(text.calls) != 0 {
		t.Fatal("no phone given; sms and call must not be attempted")
	}
}

func TestDispatchSMSRequiresPhoneAndFlag(t *testing.T) {
	cases := []struct {
		name    string
		phone   string
		sendSMS bool
		wantSMS int
	}{
		{"phone and flag", "+15550001", true, 1},
		{"phone without flag", "+15550001", false, 0},
		{"flag without phone", "", true, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := &fakeText{}
			h := &Handler{Email: &fakeEmail{}, Text: text}

			w, _ := doDispatch(t, h, notify.Request{
				UserID: 1, UserEmail: "a@example.com", UserPhone: tc.phone,
				Title: "t", Message: "m", SendSMS: tc.sendSMS,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d; want 200", w.Code)
			}
			if len(text.sms) != tc.wantSMS {
				t.Fatalf("sms attempts = %d; want %d", len(text.sms), tc.wantSMS)
			}
		})
	}
}

func TestDispatchTypedAssignment(t *testing.T) {
	email := &fakeEmail{}
	h := &Handler{Email: email, Text: &fakeText{}}

	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com",
		NotificationType: notify.TypeChecklistAssigned,
		ChecklistTitle:   "Opening duties", DepartmentName: "Kitchen",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if resp["success"] != true {
		t.Fatalf("success = %v", resp["success"])
	}
	if len(email.sent) != 1 {
		t.Fatalf("emails sent = %d; want 1", len(email.sent))
	}
}

func TestDispatchPartialFailureStillSucceeds(t *testing.T) {
	email := &fakeEmail{err: context.DeadlineExceeded}
	text := &fakeText{}
	h := &Handler{Email: email, Text: text}

	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com", UserPhone: "+15550001",
		Title: "t", Message: "m", SendSMS: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if resp["success"] != true {
		t.Fatal("one working channel should still count as success")
	}
}

func TestDispatchAllChannelsFail(t *testing.T) {
	email := &fakeEmail{err: context.DeadlineExceeded}
	text := &fakeText{smsErr: context.DeadlineExceeded}
	h := &Handler{Email: email, Text: text}

	w, resp := doDispatch(t, h, notify.Request{
		UserID: 1, UserEmail: "a@example.com", UserPhone: "+15550001",
		Title: "t", Message: "m", SendSMS: true,
	})
	// delivery failure is reported in the body, not the status
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if resp["success"] != false {
		t.Fatalf("success = %v; want false", resp["success"])
	}
	if resp["error"] != "delivery failed" {
		t.Fatalf("error = %q", resp["error"])
	}
}
