package graph

import (
	"fmt"
	"net/url"
	"regexp"
)

const (
	// DefaultBaseURL is the base URL of the remote chat API
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultPageSize is the default number of messages requested per page
	DefaultPageSize = 50

	// MaxPageSize is the largest page the endpoint accepts
	MaxPageSize = 50
)

// HostedContentPattern matches image-asset references embedded in html message
// bodies. The host and path prefix are fixed; the remainder is opaque.
var HostedContentPattern = regexp.MustCompile(`https://graph\.microsoft\.com/v1\.0/chats/[^"'<>\s]+/hostedContents/[^"'<>\s]+/\$value`)

// MessagesURL constructs the base listing URL for a chat's messages
func MessagesURL(baseURL, chatID string, pageSize int) string {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	params := url.Values{}
	params.Set("$top", fmt.Sprintf("%d", pageSize))
	return fmt.Sprintf("%s/chats/%s/messages?%s", baseURL, url.PathEscape(chatID), params.Encode())
}

// MeURL constructs the who-am-i endpoint URL
func MeURL(baseURL string) string {
	return baseURL + "/me"
}
