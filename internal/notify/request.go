package notify

// Notification types accepted by the typed dispatch variant
const (
	TypeChecklistAssigned  = "checklist_assigned"
	TypeChecklistCompleted = "checklist_completed"
)

// Message length bounds enforced by the dispatch function
const (
	MaxTitleLen   = 200
	MaxMessageLen = 2000
)

// Request is the dispatch function's body. Callers either supply Title and
// Message directly, or set NotificationType and the template fields
// (EmployeeName, DepartmentName, ChecklistTitle) and let the function
// render them.
type Request struct {
	UserID    int64  `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserPhone string `json:"userPhone,omitempty"`

	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`

	SendSMS  bool `json:"sendSms,omitempty"`
	SendCall bool `json:"sendCall,omitempty"`

	EmployeeName     string `json:"employeeName,omitempty"`
	DepartmentName   string `json:"departmentName,omitempty"`
	ChecklistTitle   string `json:"checklistTitle,omitempty"`
	NotificationType string `json:"notificationType,omitempty"`
}

// ChannelResult reports one delivery attempt in the dispatch response.
type ChannelResult struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
}

type Response struct {
	Success  bool            `json:"success"`
	Channels []ChannelResult `json:"channels,omitempty"`
	Error    string          `json:"error,omitempty"`
}
