package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: BotFooter,
		},
	}
}

// ErrorEmbed creates a red embed for user-facing rejections
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("Erreur", description, ErrorColor)
}

// FormatKamas renders an amount with space-separated thousands, e.g. 1250000 -> "1 250 000"
func FormatKamas(amount int64) string {
	str := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}
	if len(str) > 3 {
		var b strings.Builder
		for i, r := range str {
			if i > 0 && (len(str)-i)%3 == 0 {
				b.WriteString(" ")
			}
			b.WriteRune(r)
		}
		str = b.String()
	}
	if neg {
		return "-" + str
	}
	return str
}

// ParseKamas parses a user-supplied amount. Accepts plain integers plus
// "k"/"m" multiplier suffixes and ignores spacing/comma separators,
// so "10k", "1m" and "2 500" are all valid.
func ParseKamas(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")

	multiplier := int64(1)
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	} else if strings.HasSuffix(s, "m") {
		multiplier = 1000000
		s = strings.TrimSuffix(s, "m")
	}

	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("montant invalide: %s", s)
	}

	return amount * multiplier, nil
}
