package thread

import (
	"strings"

	domainthread "github.com/alanyang/threadkeeper/internal/domain/thread"
)

const DefaultAuthSiteURL = "https://auth.black-rose.space"

// WelcomeMessage is the first post in a freshly opened thread. roleMention is
// omitted, along with its line break, when empty.
func WelcomeMessage(kind domainthread.Kind, roleMention, actorMention, authSite string) string {
	if authSite == "" {
		authSite = DefaultAuthSiteURL
	}
	var b strings.Builder
	if roleMention != "" {
		b.WriteString(roleMention)
		b.WriteString("\n")
	}
	switch kind {
	case domainthread.KindOfficer:
		b.WriteString("👋 " + actorMention + " has started a thread for officer discussion.")
	default:
		b.WriteString("👋 " + actorMention + " has started a recruitment thread!\n\n")
		b.WriteString("We're glad you're interested in joining us! To get started, auth all your characters " +
			"that you're going to recruit into the corporation with our alliance here: " + authSite + "\n\n")
		b.WriteString("Once that's finished, reply back here and let us know your in-game names that you registered. " +
			"While you're at it, tell us a little bit about yourself!")
	}
	return b.String()
}
