package anonymize

import (
	"math/big"

	"github.com/google/uuid"
)

// uidRoot is the UUID-derived UID root of ISO/IEC 9834-8.
const uidRoot = "2.25."

// NewUID returns a globally unique DICOM UID derived from a random UUID.
func NewUID() string {
	id := uuid.New()
	return uidRoot + new(big.Int).SetBytes(id[:]).String()
}
