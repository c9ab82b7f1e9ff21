package config

const (
	// MaxEmailLength is the maximum length for user emails (RFC 5321 path limit).
	MaxEmailLength = 254

	// MinPasswordLength is the minimum length for user passwords.
	MinPasswordLength = 8

	// MaxPasswordLength is the maximum length for user passwords.
	// bcrypt only considers the first 72 bytes.
	MaxPasswordLength = 72

	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxProjectNameLength = 255

	// MaxChatTitleLength is the maximum length for chat titles.
	MaxChatTitleLength = 255

	// MaxMessageRoleLength is the maximum length for a message role tag.
	MaxMessageRoleLength = 32

	// MaxMessageContentLength bounds a single message body (1MB).
	MaxMessageContentLength = 1 << 20

	// DefaultPageLimit is the page size used when a list request omits limit.
	DefaultPageLimit = 100

	// MaxPageLimit caps the page size of list requests.
	MaxPageLimit = 1000
)
