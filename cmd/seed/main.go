package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/seed"
	"github.com/tastefeed/server/pkg/config"
	"github.com/tastefeed/server/pkg/logging"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := defaults
	flag.IntVar(&opts.Users, "users", defaults.Users, "number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "posts per user")
	flag.IntVar(&opts.LikePercent, "likes", defaults.LikePercent, "chance in percent that a user likes a post")
	flag.IntVar(&opts.FavoritePercent, "favorites", defaults.FavoritePercent, "chance in percent that a user saves a post")
	flag.IntVar(&opts.CommentPercent, "comments", defaults.CommentPercent, "chance in percent that a user comments on a post")
	flag.IntVar(&opts.FollowPercent, "follows", defaults.FollowPercent, "chance in percent that a user follows another")
	randSeed := flag.Int64("seed", 0, "random seed, 0 for a random run")
	publish := flag.Bool("publish", false, "publish domain events to Kafka while seeding")
	flag.Parse()

	if opts.Users <= 0 || opts.PostsPerUser < 0 {
		fmt.Fprintln(os.Stderr, "users must be positive and posts must not be negative")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting TasteFeed seeder",
		zap.Int("users", opts.Users),
		zap.Int("posts_per_user", opts.PostsPerUser),
		zap.Int64("seed", *randSeed))

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	var publisher events.Publisher = events.Nop{}
	if *publish {
		publisher = events.NewPublisher(&cfg.Kafka)
	}
	defer publisher.Close()

	start := time.Now()
	stats, err := seed.New(db.NewRepository(database.DB), publisher, *randSeed).Run(ctx, opts)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	fmt.Printf("Seeded %d users, %d posts, %d likes, %d favorites, %d comments and %d follows in %s\n",
		stats.Users, stats.Posts, stats.Likes, stats.Favorites, stats.Comments, stats.Follows,
		time.Since(start).Round(time.Millisecond))
}
