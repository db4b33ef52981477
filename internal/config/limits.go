package config

const (
	// MaxTitleLength bounds book titles and author names.
	MaxTitleLength = 200

	// MaxDescriptionLength bounds book descriptions.
	MaxDescriptionLength = 2000

	// MaxPostLength bounds feed post content.
	MaxPostLength = 5000

	// MaxPostImages is the most images one feed post may carry.
	MaxPostImages = 10

	// MinPasswordLength is enforced at registration and profile update.
	MinPasswordLength = 6

	// MaxNotifications is how many notifications each user keeps; older ones are dropped.
	MaxNotifications = 50

	// MaxActivityLogEntries is how many activity log entries are kept, newest first.
	MaxActivityLogEntries = 1000

	// MaxUploadSize bounds multipart media and import uploads.
	MaxUploadSize = 100 << 20
)
