package utils

import "github.com/google/uuid"

// UUIDGenerator hands out time-ordered UUIDv7 strings, so ids minted on
// different clients while offline still sort by creation time.
type UUIDGenerator struct {
	newV7 func() (uuid.UUID, error)
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{newV7: uuid.NewV7}
}

// Generate falls back to a random v4 id when the v7 source fails.
func (g *UUIDGenerator) Generate() string {
	if id, err := g.newV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
