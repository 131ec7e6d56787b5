package main

import (
	"context"
	"log"
	"os"

	"github.com/FRI2020/talk-trace/internal/config"
	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a handful of contacts and conversations so the dashboard has
// something to show during development. Also prints a bcrypt hash for the
// operator password when SEED_OPERATOR_PASSWORD is set.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx := context.Background()
	contacts := store.NewContactStore(db)
	messages := store.NewMessageStore(db)

	ownID := cfg.WhatsApp.PhoneNumberID
	if ownID == "" {
		ownID = "15550000000"
	}

	conversations := []struct {
		WaID  string
		Turns []string // alternating inbound/outbound, inbound first
	}{
		{"15551234001", []string{"Hi, do you ship internationally?", "Yes, we ship worldwide. Where are you located?"}},
		{"15551234002", []string{"What are your opening hours?", "We are open 9am to 6pm, Monday through Saturday."}},
		{"15551234003", []string{"I need to talk to a person please"}},
	}

	for _, conv := range conversations {
		if _, err := contacts.Create(ctx, conv.WaID); err != nil {
			log.Printf("Failed to create contact %s: %v\n", conv.WaID, err)
			continue
		}
		log.Printf("Contact %s created (or already exists)\n", conv.WaID)

		for i, body := range conv.Turns {
			sender, receiver := conv.WaID, ownID
			if i%2 == 1 {
				sender, receiver = ownID, conv.WaID
			}
			if _, err := messages.Append(ctx, sender, receiver, body); err != nil {
				log.Printf("Failed to append message for %s: %v\n", conv.WaID, err)
			}
		}
	}

	if pw := os.Getenv("SEED_OPERATOR_PASSWORD"); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash operator password:", err)
		}
		log.Printf("OPERATOR_PASSWORD_HASH=%s\n", string(hash))
	}

	log.Println("Seed complete")
}
