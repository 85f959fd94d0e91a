package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AuthorizedUser is a principal allowed to run privileged bot commands.
// The owner is configured externally and is never stored.
type AuthorizedUser struct {
	PrincipalID  string
	DisplayName  string
	IsOwner      bool
	AuthorizedAt time.Time
}

var (
	mentionRe   = regexp.MustCompile(`^<@!?(\d+)>$`)
	principalRe = regexp.MustCompile(`^\d{17,19}$`)
)

// ParsePrincipalID accepts a raw Discord id or a mention (<@id>, <@!id>) and
// returns the normalized snowflake string.
func ParsePrincipalID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := mentionRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !principalRe.MatchString(s) {
		return "", fmt.Errorf("invalid principal id %q", raw)
	}
	id, err := snowflake.ParseString(s)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid principal id %q", raw)
	}
	return id.String(), nil
}
