package main

import (
	"context"
	"log"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/config"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/server"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.FriendRequest{},
		&entity.Friendship{},
		&entity.Follow{},
		&entity.Conversation{},
		&entity.ConversationParticipant{},
		&entity.Message{},
		&entity.MessageRead{},
		&entity.Subject{},
		&entity.Post{},
		&entity.PostLike{},
		&entity.PostSave{},
		&entity.StudySession{},
		&entity.PomodoroSettings{},
		&entity.Alarm{},
		&entity.PostIt{},
		&entity.Notification{},
	)
}

// connectRedis returns nil when redis is not configured; callers treat a nil
// client as "feature disabled".
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("REDIS_URL not set, realtime features and rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, continuing without it: %v", err)
		return nil
	}

	return client
}
