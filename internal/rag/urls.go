package rag

import "regexp"

// urlRegex matches http(s) links, www-prefixed hosts and bare domains with
// a path, while leaving trailing punctuation out of the match.
var urlRegex = regexp.MustCompile(`(?i)\b(?:https?://|www\d{0,3}\.|[a-z0-9.\-]+\.[a-z]{2,4}/)(?:[^\s()<>]+|\([^\s()<>]*\))*[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’]`)

// ExtractURLs returns every embedded link in the message text, in order.
func ExtractURLs(text string) []string {
	return urlRegex.FindAllString(text, -1)
}
