package a2a

// ============================================================================
// RPC METHOD PARAMETERS
// The same parameter shapes are used by all three transports; only the
// envelope differs.
// ============================================================================

// MessageSendParams carries a message/send or message/stream request.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// MessageSendConfiguration tunes how the server executes the request.
type MessageSendConfiguration struct {
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	HistoryLength          int                     `json:"historyLength,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	Blocking               bool                    `json:"blocking,omitempty"`
}

// TaskQueryParams identifies a task for tasks/get, with an optional cap on
// returned history length.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength int            `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TaskIDParams identifies a task for tasks/cancel and tasks/resubscribe.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// PUSH NOTIFICATIONS
// ============================================================================

// PushNotificationConfig describes one webhook endpoint to notify on task
// updates.
type PushNotificationConfig struct {
	ID             string                              `json:"id,omitempty"`
	URL            string                              `json:"url"`
	Token          string                              `json:"token,omitempty"`
	Authentication *PushNotificationAuthenticationInfo `json:"authentication,omitempty"`
}

// PushNotificationAuthenticationInfo carries the credentials the server
// presents to the webhook.
type PushNotificationAuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitempty"`
}

// TaskPushNotificationConfig binds a push config to a task. This is the full
// shape servers must emit; a bare PushNotificationConfig is accepted on input
// for compatibility but never produced.
type TaskPushNotificationConfig struct {
	TaskID                 string                 `json:"taskId"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// GetTaskPushNotificationConfigParams addresses one config of one task.
type GetTaskPushNotificationConfigParams struct {
	ID                       string         `json:"id"`
	PushNotificationConfigID string         `json:"pushNotificationConfigId,omitempty"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}

// ListTaskPushNotificationConfigParams lists every config of one task.
type ListTaskPushNotificationConfigParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeleteTaskPushNotificationConfigParams removes one config of one task.
type DeleteTaskPushNotificationConfigParams struct {
	ID                       string         `json:"id"`
	PushNotificationConfigID string         `json:"pushNotificationConfigId"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}
