package types

// UserProfile carries the per-request caller details. It is never
// persisted; the client sends it back on every request.
type UserProfile struct {
	Name     string `json:"name,omitempty"`
	City     string `json:"city,omitempty"`
	Family   string `json:"family,omitempty"`
	Style    string `json:"style,omitempty"` // short | normal | long
	Timezone string `json:"timezone,omitempty"`
}

type AskRequest struct {
	DeviceID string `json:"deviceId"`
	Question string `json:"question"`
	Name     string `json:"name,omitempty"`
	City     string `json:"city,omitempty"`
	Family   string `json:"family,omitempty"`
	Style    string `json:"style,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

func (r AskRequest) Profile() UserProfile {
	return UserProfile{
		Name:     r.Name,
		City:     r.City,
		Family:   r.Family,
		Style:    r.Style,
		Timezone: r.Timezone,
	}
}

type AskResponse struct {
	OK         bool   `json:"ok"`
	Answer     string `json:"answer,omitempty"`
	Intent     string `json:"intent,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Alarm is a plain CRUD record polled by the client; the server never
// schedules anything.
type Alarm struct {
	ID       int64  `json:"id"`
	DeviceID string `json:"deviceId"`
	FireAt   int64  `json:"fireAt"` // epoch seconds
	City     string `json:"city,omitempty"`
	Message  string `json:"message,omitempty"`
	Fired    bool   `json:"fired"`
}
