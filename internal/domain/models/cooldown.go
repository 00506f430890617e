// internal/domain/models/cooldown.go
package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cooldown purposes.
const (
	CooldownPasswordReset = "password_reset"
)

// Cooldown is a persisted "try again later" window, e.g. the resend delay
// after a password-reset e-mail. It survives restarts and page reloads and
// is reconciled against wall-clock time whenever it is read.
type Cooldown struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Key       string             `bson:"key"`
	Purpose   string             `bson:"purpose"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Remaining returns whole seconds left at now, rounded up. Zero means the
// window has closed.
func (c Cooldown) Remaining(now time.Time) int {
	d := c.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Active reports whether the window is still open at now.
func (c Cooldown) Active(now time.Time) bool {
	return c.Remaining(now) > 0
}
