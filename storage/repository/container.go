/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import "context"

// Container interface brings together all repository instances.
type Container interface {
	// User method returns repository.User concrete implementation.
	User() User

	// Roster method returns repository.Roster concrete implementation.
	Roster() Roster

	// Close closes underlying storage resources, commonly shared across repositories.
	Close(ctx context.Context) error
}
