package auth

import "fmt"

func AuthDM(url string) string {
	return "🔐 **Eve Online Authentication**\n\n" +
		"Click the link below to authenticate your Eve Online character:\n" +
		url + "\n\n" +
		"This will allow the bot to:\n" +
		"• Update your Discord nickname to match your Eve character\n" +
		"• Display your Alliance and Corporation info\n\n" +
		"The link is unique to you and expires after use."
}

// AuthFallback is shown in the channel when the member's DMs are closed.
func AuthFallback(url string) string {
	return "🔐 **Eve Online Authentication**\n\n" +
		"Click here to authenticate: " + url + "\n\n" +
		"⚠️ Enable DMs to receive auth links privately in the future."
}

func ReauthDM(community string) string {
	if community == "" {
		community = "the server"
	}
	return fmt.Sprintf("⚠️ Your Eve Online authentication has expired!\n\n"+
		"Please use `/auth` in %s to re-authenticate and keep your nickname updated.", community)
}
