package utils

// General configuration
const (
	BotColor   = 0xF1C40F
	ErrorColor = 0xE74C3C
	GreenColor = 0x2ECC71
	GreyColor  = 0x95A5A6
	BotFooter  = "Numéro Mystère"
	DiceGifURL = "https://images.emojiterra.com/google/noto-emoji/animated-emoji/1f3b2.gif"
)

// Game rules
const (
	MinNumber          = 1
	MaxNumber          = 6
	MinPlayers         = 2
	DefaultPlayerLimit = 6
	CommissionRate     = 0.05
)

// Timing
const (
	CountdownSeconds = 5 // suspense ticks before each roll
	RerollPauseSecs  = 2 // pause after an unmatched roll
	LobbyTimeoutMins = 5 // lobby expiry when fewer than MinPlayers joined
)

// UI messages (user-facing strings are French, matching the community the bot serves)
const (
	MsgWrongChannel     = "❌ Cette commande ne peut être utilisée que dans le salon de jeu."
	MsgStakeTooLow      = "❌ Le montant doit être supérieur à 0."
	MsgAlreadyInGame    = "❌ Tu participes déjà à une autre partie."
	MsgAlreadyChose     = "❌ Tu as déjà choisi un numéro pour cette partie."
	MsgNumberTaken      = "❌ Ce numéro est déjà pris. Choisis un autre numéro."
	MsgGameFull         = "❌ La partie est complète."
	MsgNotInGame        = "❌ Tu n'es pas inscrit à cette partie."
	MsgNoCroupierRole   = "❌ Tu n'as pas le rôle de `croupier` pour rejoindre cette partie."
	MsgNotEnoughPlayers = "❌ Il faut au moins 2 joueurs avant qu'un croupier puisse rejoindre."
	MsgCroupierTaken    = "❌ Un croupier est déjà assigné à cette partie."
	MsgCroupierOnly     = "❌ Seul le croupier peut lancer la partie."
	MsgGameNotReady     = "❌ La partie n'est pas prête à être lancée."
	MsgGameGone         = "❌ Cette partie n'existe plus."
	MsgNoStats          = "❌ Tu n'as pas encore participé à une partie."
)
