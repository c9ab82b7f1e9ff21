package services

import "context"

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: ownership-based (user owns project).
//
// Services call the authorizer before operating on a resource. A missing
// resource is reported as domain.ErrNotFound, an existing one owned by
// someone else as domain.ErrForbidden.
type ResourceAuthorizer interface {
	// CanAccessUser checks that the requester is the user
	CanAccessUser(ctx context.Context, requesterID, userID string) error

	// CanAccessProject checks if user owns the project
	CanAccessProject(ctx context.Context, userID, projectID string) error

	// CanAccessChat checks if user can access a chat (via its project)
	CanAccessChat(ctx context.Context, userID, chatID string) error

	// CanAccessMessage checks if user can access a message (via its chat's project)
	CanAccessMessage(ctx context.Context, userID, messageID string) error
}
