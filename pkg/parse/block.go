package parse

import (
	"strings"
)

// Bot challenge pages put their markers close to the beginning of the document.
const blockPagePrefixSize = 1200

var blockPageSignatures = []string{
	"Please enable JS and disable any ad blocker",
	"captcha-delivery.com",
	"geo.captcha-delivery.com",
	"ct.captcha-delivery.com",
}

func IsBlockPage(body string) bool {
	head := body
	if len(head) > blockPagePrefixSize {
		head = head[:blockPagePrefixSize]
	}

	for _, signature := range blockPageSignatures {
		if strings.Contains(head, signature) {
			return true
		}
	}

	return false
}
