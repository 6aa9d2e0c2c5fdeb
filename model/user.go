/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package model

import "time"

// User represents a user storage entity.
type User struct {
	Username string

	// Password holds the bcrypt hash of the user password.
	Password []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}
