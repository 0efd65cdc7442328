package protocol

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// DefaultVersion is the protocol version announced in the handshake.
const DefaultVersion = "0.2"

// lineFramedSince is the first protocol version with newline-terminated messages.
var lineFramedSince = version.Must(version.NewVersion("0.2"))

// NewlineFramed reports whether documents sent under protocol v need a
// trailing newline. An empty v means no handshake was negotiated and the
// line-framed form is used.
func NewlineFramed(v string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return true, nil
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return parsed.GreaterThanOrEqual(lineFramedSince), nil
}
