package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mystere-go/games/mystere"
	"mystere-go/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
)

var botStatus = "starting"

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Keep-alive server for the hosting platform's health checks
	go startHealthServer(cfg.Port)

	if err := utils.SetupDatabase(cfg.DatabaseURL); err != nil {
		log.Printf("Database setup failed: %v", err)
		log.Println("Bot will continue without statistics features")
	} else if cfg.DatabaseURL != "" {
		log.Println("Database connected successfully")
		defer utils.CloseDatabase()
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	game := mystere.New(mystere.NewRegistry(), cfg)

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		onReady(s, event, game)
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		onInteractionCreate(s, i, game)
	})

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to open Discord connection: %v", err)
	}
	defer session.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	botStatus = "running"

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("Gracefully shutting down...")
	botStatus = "shutting_down"
}

func onReady(s *discordgo.Session, event *discordgo.Ready, game *mystere.Game) {
	log.Printf("Discord bot logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	botStatus = "online"

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "Numéro Mystère 🎲",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Printf("Failed to update status: %v", err)
	}

	if err := registerSlashCommands(s, game); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}
}

func registerSlashCommands(s *discordgo.Session, game *mystere.Game) error {
	commands := []*discordgo.ApplicationCommand{game.Command()}
	commands = append(commands, game.StatsCommands()...)

	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	log.Printf("Successfully registered %d slash commands", len(commands))
	return nil
}

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, game *mystere.Game) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "duel":
			game.HandleCommand(s, i)
		case "statsall":
			game.HandleStatsAll(s, i)
		case "mystats":
			game.HandleMyStats(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		switch {
		case strings.HasPrefix(customID, "stats_page_"):
			game.HandleStatsPage(s, i)
		case strings.HasPrefix(customID, "mystere_"):
			game.HandleInteraction(s, i)
		}
	}
}

func startHealthServer(port string) {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Discord Bot Status: %s", botStatus)
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"mystere-bot","bot_status":%q}`, botStatus)
	}).Methods(http.MethodGet)

	log.Printf("Health server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
