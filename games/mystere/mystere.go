package mystere

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mystere-go/utils"

	"github.com/bwmarrin/discordgo"
)

// Game wires the session state machine to Discord. The registry and role ids
// are injected from main; nothing here reaches for globals.
type Game struct {
	Registry     *Registry
	CroupierRole string
	MemberRole   string
	GameChannel  string
}

func New(registry *Registry, cfg *utils.Config) *Game {
	return &Game{
		Registry:     registry,
		CroupierRole: cfg.CroupierRole,
		MemberRole:   cfg.MemberRole,
		GameChannel:  cfg.GameChannelID,
	}
}

// Command registration
func (g *Game) Command() *discordgo.ApplicationCommand {
	minPlayers := float64(utils.MinPlayers)
	return &discordgo.ApplicationCommand{
		Name:        "duel",
		Description: "Lancer une partie de Numéro Mystère.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "montant",
				Description: "Montant misé en kamas (ex: 500, 10k, 1m)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "joueurs",
				Description: "Nombre maximum de joueurs (2 à 6)",
				Required:    false,
				MinValue:    &minPlayers,
				MaxValue:    float64(utils.DefaultPlayerLimit),
			},
		},
	}
}

// HandleCommand handles /duel: validates, posts the lobby and registers the
// session under the posted message id.
func (g *Game) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if g.GameChannel != "" && i.ChannelID != g.GameChannel {
		_ = utils.EphemeralNotice(s, i, utils.MsgWrongChannel)
		return
	}

	var stakeStr string
	playerLimit := utils.DefaultPlayerLimit
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "montant":
			stakeStr = opt.StringValue()
		case "joueurs":
			playerLimit = int(opt.IntValue())
		}
	}

	stake, err := utils.ParseKamas(stakeStr)
	if err != nil || stake <= 0 {
		_ = utils.EphemeralNotice(s, i, utils.MsgStakeTooLow)
		return
	}

	creatorID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		return
	}
	if g.Registry.UserBusy(creatorID) {
		_ = utils.EphemeralNotice(s, i, utils.MsgAlreadyInGame)
		return
	}

	content := ""
	if g.MemberRole != "" {
		content = fmt.Sprintf("<@&%s> — Une nouvelle partie est prête ! Rejoignez-la !", g.MemberRole)
	}

	embed := g.lobbyEmbed(Snapshot{
		Stake:       stake,
		CreatorID:   creatorID,
		PlayerLimit: playerLimit,
		Status:      StatusOpen,
	})
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Embeds:          []*discordgo.MessageEmbed{embed},
			AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles, discordgo.AllowedMentionTypeUsers}},
		},
	})
	if err != nil {
		utils.BotLogf("MYSTERE", "Failed to post lobby: %v", err)
		return
	}

	// The message id becomes the session id; the session cannot exist before
	// the announcement is posted.
	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil || msg == nil {
		utils.BotLogf("MYSTERE", "Failed to fetch lobby message: %v", err)
		return
	}

	sess, err := g.Registry.Create(msg.ID, stake, creatorID, playerLimit)
	if err != nil {
		utils.BotLogf("MYSTERE", "Failed to register session: %v", err)
		return
	}

	components := g.lobbyComponents(sess)
	_ = utils.EditOriginalInteraction(s, i, g.lobbyEmbed(sess.Snapshot()), components)

	go g.scheduleExpiry(s, i.ChannelID, msg.ID)
}

// HandleInteraction routes the lobby buttons. The message the button lives on
// is the session id.
func (g *Game) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	sess, ok := g.Registry.Get(i.Message.ID)
	if !ok {
		_ = utils.EphemeralNotice(s, i, noticeFor(ErrSessionNotFound))
		return
	}
	userID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		return
	}

	switch {
	case strings.HasPrefix(customID, "mystere_num_"):
		number, _ := strconv.Atoi(strings.TrimPrefix(customID, "mystere_num_"))
		g.handleJoin(s, i, sess, userID, number)
	case customID == "mystere_leave":
		g.handleLeave(s, i, sess, userID)
	case customID == "mystere_croupier":
		g.handleCroupier(s, i, sess, userID)
	case customID == "mystere_start":
		g.handleStart(s, i, sess, userID)
	}
}

func (g *Game) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate, sess *Session, userID int64, number int) {
	// One table per player, across every live session
	if !sess.HasPlayer(userID) && g.Registry.UserBusy(userID) {
		_ = utils.EphemeralNotice(s, i, utils.MsgAlreadyInGame)
		return
	}

	err := sess.Apply(Join{UserID: userID, Handle: i.Member.User.Mention(), Number: number})
	if err != nil {
		_ = utils.EphemeralNotice(s, i, noticeFor(err))
		return
	}

	_ = utils.UpdateComponentInteraction(s, i, g.lobbyEmbed(sess.Snapshot()), g.lobbyComponents(sess))
}

func (g *Game) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate, sess *Session, userID int64) {
	err := sess.Apply(Leave{UserID: userID})
	if err != nil {
		_ = utils.EphemeralNotice(s, i, noticeFor(err))
		return
	}

	snap := sess.Snapshot()
	if snap.Status == StatusCancelled {
		g.Registry.Remove(sess.ID)
		embed := utils.ErrorEmbed(fmt.Sprintf("La partie a été annulée par %s.", i.Member.User.Mention()))
		embed.Title = "❌ Partie annulée"
		_ = utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})
		return
	}

	_ = utils.UpdateComponentInteraction(s, i, g.lobbyEmbed(snap), g.lobbyComponents(sess))
}

func (g *Game) handleCroupier(s *discordgo.Session, i *discordgo.InteractionCreate, sess *Session, userID int64) {
	authorized := utils.MemberHasRole(i.Member, g.CroupierRole)
	err := sess.Apply(AssignDealer{UserID: userID, Authorized: authorized})
	if err != nil {
		// ErrUnauthorized means the role check failed here, not a dealer gate
		notice := noticeFor(err)
		if errors.Is(err, ErrUnauthorized) {
			notice = utils.MsgNoCroupierRole
		}
		_ = utils.EphemeralNotice(s, i, notice)
		return
	}

	_ = utils.UpdateComponentInteraction(s, i, g.lobbyEmbed(sess.Snapshot()), g.lobbyComponents(sess))
}

func (g *Game) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, sess *Session, userID int64) {
	err := sess.Apply(Resolve{UserID: userID})
	if err != nil {
		_ = utils.EphemeralNotice(s, i, noticeFor(err))
		return
	}

	embed := g.suspenseEmbed("On croise les doigts 🤞 !")
	_ = utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})

	go g.runDraw(s, i.ChannelID, sess)
}

// runDraw drives the draw protocol, animating each tick on the lobby message.
// The sleeps inside the observer are the session's only suspension points.
func (g *Game) runDraw(s *discordgo.Session, channelID string, sess *Session) {
	snap := sess.Snapshot()

	res, err := sess.Draw(NewDice(), func(ev DrawEvent) {
		switch {
		case ev.Countdown > 0:
			embed := g.suspenseEmbed(fmt.Sprintf("Le résultat sera révélé dans %d secondes...", ev.Countdown))
			_ = utils.EditChannelMessage(s, channelID, sess.ID, embed, []discordgo.MessageComponent{})
			time.Sleep(time.Second)
		case ev.Rerolled > 0:
			embed := g.suspenseEmbed(fmt.Sprintf("Le numéro tiré était **%d**. Personne n'a choisi ce numéro. Relance du dé !", ev.Rerolled))
			_ = utils.EditChannelMessage(s, channelID, sess.ID, embed, []discordgo.MessageComponent{})
			time.Sleep(utils.RerollPauseSecs * time.Second)
		}
	})
	if err != nil {
		utils.BotLogf("MYSTERE", "Draw failed for session %s: %v", sess.ID, err)
		return
	}

	g.finalize(s, channelID, snap, res)
}

// finalize persists the ledger rows and publishes the result. A failed write
// loses the stats rows but never blocks game completion: the result stands
// and the session leaves the registry either way.
func (g *Game) finalize(s *discordgo.Session, channelID string, snap Snapshot, res *Resolution) {
	winner := res.Winners[0]
	now := time.Now().UTC()
	rounds := make([]utils.Round, 0, len(snap.Players))
	for _, p := range snap.Players {
		rounds = append(rounds, utils.Round{
			SessionID:     snap.ID,
			ParticipantID: p.UserID,
			Stake:         snap.Stake,
			ChosenNumber:  p.Number,
			WinnerID:      &winner,
			DrawnNumber:   res.DrawnNumber,
			PlayedAt:      now,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := utils.RecordRounds(ctx, rounds); err != nil {
		utils.BotLogf("DATABASE", "Failed to record session %s: %v", snap.ID, err)
	}

	g.Registry.Remove(snap.ID)

	_ = utils.EditChannelMessage(s, channelID, snap.ID, g.resultEmbed(snap, res), []discordgo.MessageComponent{})
}

// scheduleExpiry closes a lobby that never gathered enough players.
func (g *Game) scheduleExpiry(s *discordgo.Session, channelID, sessionID string) {
	time.Sleep(utils.LobbyTimeoutMins * time.Minute)

	sess, ok := g.Registry.Get(sessionID)
	if !ok {
		return
	}
	if !sess.Expire() {
		return
	}
	g.Registry.Remove(sessionID)

	embed := utils.ErrorEmbed("La partie a expiré car il n'y a pas assez de joueurs.")
	embed.Title = "❌ Partie expirée"
	_ = utils.EditChannelMessage(s, channelID, sessionID, embed, []discordgo.MessageComponent{})
}

// noticeFor maps a state machine rejection to its user-facing notice.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		return utils.MsgAlreadyChose
	case errors.Is(err, ErrNumberTaken):
		return utils.MsgNumberTaken
	case errors.Is(err, ErrSessionFull):
		return utils.MsgGameFull
	case errors.Is(err, ErrNotRegistered):
		return utils.MsgNotInGame
	case errors.Is(err, ErrUnauthorized):
		return utils.MsgCroupierOnly
	case errors.Is(err, ErrNotEnoughPlayers):
		return utils.MsgNotEnoughPlayers
	case errors.Is(err, ErrDealerAssigned):
		return utils.MsgCroupierTaken
	case errors.Is(err, ErrNotReady):
		return utils.MsgGameNotReady
	default:
		// ErrSessionNotFound and anything unexpected
		return utils.MsgGameGone
	}
}

func (g *Game) lobbyEmbed(snap Snapshot) *discordgo.MessageEmbed {
	embed := utils.CreateBrandedEmbed(
		"🔮 Nouvelle Partie de Numéro Mystère",
		fmt.Sprintf("<@%d> a lancé une partie pour **%s kamas** par personne.", snap.CreatorID, utils.FormatKamas(snap.Stake)),
		utils.BotColor,
	)

	playerList := "..."
	if len(snap.Players) > 0 {
		lines := make([]string, 0, len(snap.Players))
		for _, p := range snap.Players {
			lines = append(lines, fmt.Sprintf("%s a choisi le numéro **%d**", p.Handle, p.Number))
		}
		playerList = strings.Join(lines, "\n")
	}

	status := fmt.Sprintf("**%d/%d** joueurs inscrits. En attente...", len(snap.Players), snap.PlayerLimit)
	if snap.Status == StatusReady {
		status = fmt.Sprintf("✅ Prêt à jouer ! Croupier : <@%d>", snap.Dealer)
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Joueurs inscrits", Value: playerList, Inline: false},
		{Name: "Status", Value: status, Inline: false},
	}

	footer := "Clique sur un numéro pour t'inscrire et faire un choix."
	if snap.Status == StatusDealerPending {
		footer = "Un croupier peut maintenant lancer la partie."
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}

	return embed
}

func (g *Game) suspenseEmbed(description string) *discordgo.MessageEmbed {
	embed := utils.CreateBrandedEmbed("🎲 Tirage en cours...", description, utils.GreyColor)
	embed.Image = &discordgo.MessageEmbedImage{URL: utils.DiceGifURL}
	return embed
}

func (g *Game) resultEmbed(snap Snapshot, res *Resolution) *discordgo.MessageEmbed {
	embed := utils.CreateBrandedEmbed("🔮 Résultat du Numéro Mystère", "", utils.GreenColor)
	divider := strings.Repeat("─", 20)

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Le Numéro Mystère était...", Value: fmt.Sprintf("**%d** !", res.DrawnNumber), Inline: false,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: " ", Value: divider, Inline: false})

	for _, p := range snap.Players {
		payout := res.Payouts[p.UserID]
		statusEmoji, statusText := "❌", "**Perdu**"
		if p.Number == res.DrawnNumber {
			statusEmoji = "✅"
			statusText = fmt.Sprintf("**Gagné !** (%s kamas)", utils.FormatKamas(payout))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s <@%d>", statusEmoji, p.UserID),
			Value:  fmt.Sprintf("A choisi : **%d** | %s", p.Number, statusText),
			Inline: false,
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: " ", Value: divider, Inline: false})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "💰 Montant Total du Pot", Value: fmt.Sprintf("**%s** kamas", utils.FormatKamas(res.Pot)), Inline: true,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "💸 Commission (5%)", Value: fmt.Sprintf("**%s** kamas", utils.FormatKamas(res.Commission)), Inline: true,
	})

	if len(res.Winners) == 1 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🏆 Gagnant",
			Value:  fmt.Sprintf("<@%d> remporte **%s** kamas !", res.Winners[0], utils.FormatKamas(res.Share)),
			Inline: false,
		})
	} else {
		mentions := make([]string, 0, len(res.Winners))
		for _, w := range res.Winners {
			mentions = append(mentions, fmt.Sprintf("<@%d>", w))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🏆 Gagnants (Égalité)",
			Value:  fmt.Sprintf("%s se partagent le gain et reçoivent **%s** kamas chacun.", strings.Join(mentions, " "), utils.FormatKamas(res.Share)),
			Inline: false,
		})
	}

	return embed
}

// lobbyComponents builds the number grid plus the control row. Claimed
// numbers show disabled in red.
func (g *Game) lobbyComponents(sess *Session) []discordgo.MessageComponent {
	claimed := sess.ClaimedNumbers()
	snap := sess.Snapshot()

	numberRow := func(from, to int) discordgo.MessageComponent {
		buttons := make([]discordgo.MessageComponent, 0, to-from+1)
		for n := from; n <= to; n++ {
			style := discordgo.SecondaryButton
			if claimed[n] {
				style = discordgo.DangerButton
			}
			buttons = append(buttons, utils.CreateButton(
				fmt.Sprintf("mystere_num_%d", n), strconv.Itoa(n), style, claimed[n], nil,
			))
		}
		return utils.CreateActionRow(buttons...)
	}

	controls := []discordgo.MessageComponent{
		utils.CreateButton("mystere_leave", "❌ Annuler", discordgo.DangerButton, false, nil),
	}
	switch snap.Status {
	case StatusDealerPending:
		controls = append(controls, utils.CreateButton(
			"mystere_croupier", "🤝 Rejoindre en tant que Croupier", discordgo.SecondaryButton, false, nil,
		))
	case StatusReady:
		// The board stays clickable for late joins until the croupier launches
		controls = append(controls, utils.CreateButton(
			"mystere_start", "🎰 Lancer la partie !", discordgo.SuccessButton, false, nil,
		))
	}

	return []discordgo.MessageComponent{
		numberRow(utils.MinNumber, 3),
		numberRow(4, utils.MaxNumber),
		utils.CreateActionRow(controls...),
	}
}
