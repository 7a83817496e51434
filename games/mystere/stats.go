package mystere

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"mystere-go/utils"

	"github.com/bwmarrin/discordgo"
)

const statsPerPage = 10

// StatsCommands returns the two statistics slash commands.
func (g *Game) StatsCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "statsall",
			Description: "Affiche les stats du jeu de Numéro Mystère.",
		},
		{
			Name:        "mystats",
			Description: "Affiche tes statistiques de Numéro Mystère.",
		},
	}
}

// HandleStatsAll handles /statsall: the global leaderboard, paginated.
func (g *Game) HandleStatsAll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if g.GameChannel != "" && i.ChannelID != g.GameChannel {
		_ = utils.EphemeralNotice(s, i, utils.MsgWrongChannel)
		return
	}

	// The aggregation may take a moment on a cold pool
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := utils.GlobalStats(ctx)
	if err != nil {
		utils.BotLogf("DATABASE", "Failed to query global stats: %v", err)
		_ = utils.EditOriginalInteraction(s, i, utils.ErrorEmbed("Les statistiques sont indisponibles pour le moment."), nil)
		return
	}
	if len(stats) == 0 {
		_ = utils.EditOriginalInteraction(s, i, utils.ErrorEmbed("Aucune donnée statistique disponible."), nil)
		return
	}

	_ = utils.EditOriginalInteraction(s, i, statsEmbed(stats, 0), statsComponents(0, maxPage(len(stats))))
}

// HandleStatsPage handles the pagination buttons. The target page travels in
// the custom id, so no per-message view state is kept; the leaderboard is
// re-queried on every click.
func (g *Game) HandleStatsPage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Custom ids look like "stats_page_prev_3"; the page is the last segment.
	parts := strings.Split(i.MessageComponentData().CustomID, "_")
	page, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || page < 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := utils.GlobalStats(ctx)
	if err != nil || len(stats) == 0 {
		_ = utils.EphemeralNotice(s, i, "Aucune donnée statistique disponible.")
		return
	}

	if last := maxPage(len(stats)); page > last {
		page = last
	}
	_ = utils.UpdateComponentInteraction(s, i, statsEmbed(stats, page), statsComponents(page, maxPage(len(stats))))
}

// HandleMyStats handles /mystats: the caller's personal aggregate, ephemeral.
func (g *Game) HandleMyStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ps, err := utils.PersonalStats(ctx, userID)
	if err != nil {
		utils.BotLogf("DATABASE", "Failed to query stats for %d: %v", userID, err)
		_ = utils.EphemeralNotice(s, i, "❌ Les statistiques sont indisponibles pour le moment.")
		return
	}
	if ps == nil {
		embed := utils.CreateBrandedEmbed("📊 Tes Statistiques de Numéro Mystère", utils.MsgNoStats, utils.ErrorColor)
		_ = utils.SendInteractionResponse(s, i, embed, nil, true)
		return
	}

	embed := utils.CreateBrandedEmbed(
		fmt.Sprintf("📊 Statistiques de %s", i.Member.User.Username),
		"Voici un résumé de tes performances au jeu du Numéro Mystère.",
		utils.BotColor,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Total misé", Value: fmt.Sprintf("**%s kamas**", utils.FormatKamas(ps.TotalStaked)), Inline: false},
		{Name: "Total gagné", Value: fmt.Sprintf("**%s kamas**", utils.FormatKamas(roundKamas(ps.TotalWon))), Inline: false},
		{Name: "Parties jouées", Value: fmt.Sprintf("**%d**", ps.GamesPlayed), Inline: true},
		{Name: "Victoires", Value: fmt.Sprintf("**%d**", ps.Wins), Inline: true},
		{Name: "Taux de victoire", Value: fmt.Sprintf("**%.1f%%**", ps.WinRate), Inline: false},
	}
	if i.Member.User.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: i.Member.User.AvatarURL("")}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Bonne chance pour tes prochaines parties !"}

	_ = utils.SendInteractionResponse(s, i, embed, nil, true)
}

func statsEmbed(stats []utils.PlayerStats, page int) *discordgo.MessageEmbed {
	embed := utils.CreateBrandedEmbed("📊 Statistiques globales des parties", "", utils.BotColor)

	start, end := pageBounds(len(stats), page)
	lines := make([]string, 0, end-start)
	for idx, ps := range stats[start:end] {
		rank := start + idx + 1
		lines = append(lines, fmt.Sprintf(
			"**#%d** <@%d> — 💰 **Misés** : `%s` kamas | 🏆 **Gagnés** : `%s` kamas | 🎯 **Winrate** : `%.1f%%` (**%d**/**%d**)",
			rank, ps.ParticipantID,
			utils.FormatKamas(ps.TotalStaked),
			utils.FormatKamas(roundKamas(ps.TotalWon)),
			ps.WinRate, ps.Wins, ps.GamesPlayed,
		))
	}
	embed.Description = strings.Join(lines, "\n"+strings.Repeat("─", 20)+"\n")
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", page+1, maxPage(len(stats))+1)}

	return embed
}

func statsComponents(page, lastPage int) []discordgo.MessageComponent {
	atFirst := page == 0
	atLast := page == lastPage
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton("stats_page_first_0", "⏮️", discordgo.SecondaryButton, atFirst, nil),
			utils.CreateButton(fmt.Sprintf("stats_page_prev_%d", maxInt(page-1, 0)), "◀️", discordgo.SecondaryButton, atFirst, nil),
			utils.CreateButton(fmt.Sprintf("stats_page_next_%d", minInt(page+1, lastPage)), "▶️", discordgo.SecondaryButton, atLast, nil),
			utils.CreateButton(fmt.Sprintf("stats_page_last_%d", lastPage), "⏭️", discordgo.SecondaryButton, atLast, nil),
		),
	}
}

// pageBounds returns the half-open [start, end) slice bounds for a page.
func pageBounds(total, page int) (int, int) {
	start := page * statsPerPage
	if start > total {
		start = total
	}
	end := start + statsPerPage
	if end > total {
		end = total
	}
	return start, end
}

// maxPage returns the last valid zero-based page index.
func maxPage(total int) int {
	if total <= 0 {
		return 0
	}
	return (total - 1) / statsPerPage
}

func roundKamas(v float64) int64 {
	return int64(math.Round(v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
