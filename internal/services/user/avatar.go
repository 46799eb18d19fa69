// Package user implements account management and profile statistics.
package user

import (
	"fmt"
	"net/url"

	"github.com/samber/lo"
)

// avatarPalette holds the background colors a generated avatar can pick from.
var avatarPalette = []string{
	"1abc9c",
	"2ecc71",
	"3498db",
	"9b59b6",
	"e67e22",
	"e74c3c",
	"f39c12",
	"16a085",
	"2c3e50",
	"8e44ad",
}

// defaultAvatarURL builds an initials avatar for a new account. The color is
// sampled at random, so two accounts with the same name usually look
// different.
func defaultAvatarURL(username string) string {
	background := lo.Sample(avatarPalette)
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=%s&color=fff", url.QueryEscape(username), background)
}
