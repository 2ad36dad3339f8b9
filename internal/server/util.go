package server

import (
	"crypto/rand"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

func newJoinCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

var teamColors = []string{
	"red",
	"green",
	"blue",
	"gold",
	"purple",
	"pink",
	"cyan",
	"orange",
}

func pickTeamColor(index int) string {
	if index < 0 {
		index = 0
	}
	return teamColors[index%len(teamColors)]
}

func isTeamColor(name string) bool {
	for _, color := range teamColors {
		if color == name {
			return true
		}
	}
	return false
}
