package ids

import "github.com/google/uuid"

// New returns a random unique entity id. Random ids keep independent
// writers from colliding without coordinating a sequence.
func New() string {
	return uuid.NewString()
}
