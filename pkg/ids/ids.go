package ids

import (
	"fmt"
	"math/rand"
	"time"
)

// Generate builds a short human-readable identifier with the given prefix,
// e.g. "ST_48291734". The suffix combines the clock tail with a random block
// so operators can read ids aloud without ambiguity.
func Generate(prefix string) string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	tail := timestamp[len(timestamp)-4:]
	random := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s_%s%d", prefix, tail, random)
}

// NewStationID returns a station identifier.
func NewStationID() string {
	return Generate("ST")
}

// NewVehicleID returns a vehicle identifier.
func NewVehicleID() string {
	return Generate("VH")
}

// NewMemberID returns an admin member identifier.
func NewMemberID() string {
	return Generate("ADM")
}
