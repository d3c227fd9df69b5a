package common

// Keys of the metadata key-value table.
const (
	// TokenMetadataKey holds the bearer token of the signed-in user.
	TokenMetadataKey = "story_token"

	// UserNameMetadataKey holds the display name returned at login.
	UserNameMetadataKey = "story_user"

	// PushRegisteredMetadataKey holds the endpoint the remote authority has
	// acknowledged; its absence means the server step has not succeeded yet.
	PushRegisteredMetadataKey = "push_registered_endpoint"

	// PushPendingDeleteMetadataKey holds an endpoint whose local subscription
	// was torn down but whose remote record could not be deleted.
	PushPendingDeleteMetadataKey = "push_pending_delete_endpoint"

	// PermissionMetadataKey persists a granted notification permission.
	PermissionMetadataKey = "notification_permission"
)
