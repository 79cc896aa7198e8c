package resolver

import "net/http"

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

// ClientIdentity is the header set a fetch presents itself with.
type ClientIdentity struct {
	Name           string
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// Headers renders the identity as request headers. No credentials or cookies
// are ever included.
func (c ClientIdentity) Headers() http.Header {
	h := http.Header{}
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
	if c.Accept != "" {
		h.Set("Accept", c.Accept)
	}
	if c.AcceptLanguage != "" {
		h.Set("Accept-Language", c.AcceptLanguage)
	}
	return h
}

// Known client identities.
var (
	ChatPreviewIdentity = ClientIdentity{
		Name:           "chat-preview",
		UserAgent:      "Mozilla/5.0 (compatible; Discordbot/2.0; +https://discordapp.com)",
		Accept:         htmlAccept,
		AcceptLanguage: "en-US,en;q=0.9",
	}
	SocialPreviewIdentity = ClientIdentity{
		Name:           "social-preview",
		UserAgent:      "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
		Accept:         htmlAccept,
		AcceptLanguage: "en-US,en;q=0.9",
	}
	BrowserIdentity = ClientIdentity{
		Name:           "browser",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:         htmlAccept,
		AcceptLanguage: "en-US,en;q=0.9",
	}
)

// DefaultPreviewIdentities is the rotation used by the preview strategy, with
// the generic browser last.
func DefaultPreviewIdentities() []ClientIdentity {
	return []ClientIdentity{ChatPreviewIdentity, SocialPreviewIdentity, BrowserIdentity}
}
