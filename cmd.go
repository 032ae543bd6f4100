package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"bingo-service/config"
	"bingo-service/internal/bingo"
	"bingo-service/internal/catalog"
	"bingo-service/internal/tui"
	"bingo-service/pkg/jwt"
	"bingo-service/pkg/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// loadConfig layers flags over the environment over defaults.
func loadConfig(v *viper.Viper, cmd *cobra.Command) *config.Config {
	config.BindFlags(v, cmd.Flags())
	return config.FromViper(v)
}

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:     "bingo-service",
		Short:   "Football bingo: match players to achievement categories, solo or in quiz rooms.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), loadConfig(v, cmd))
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.String("http-port", "8080", "HTTP port (env: HTTP_PORT)")
	fs.String("grpc-port", "50051", "gRPC health port (env: GRPC_PORT)")
	fs.String("public-url", "http://localhost:8080", "base URL encoded in room QR codes (env: PUBLIC_URL)")
	fs.String("cards-dir", "./cards", "directory of card files (env: CARDS_DIR)")
	fs.String("cards-bucket", "", "S3 bucket holding card files (env: CARDS_BUCKET)")
	fs.String("profile", "classic", "default game profile: classic or hard (env: PROFILE)")
	fs.Bool("timed", false, "enable the turn countdown by default (env: TIMED)")
	fs.Int("turn-seconds", bingo.DefaultTurnSeconds, "seconds per turn in timed mode (env: TURN_SECONDS)")
	fs.Bool("skip-cooldown", false, "every other skip is free after a paid one (env: SKIP_COOLDOWN)")
	fs.Int("questions-per-game", 4, "questions drawn for each quiz room game (env: QUESTIONS_PER_GAME)")

	cmd.AddCommand(newPlayCmd(v), newTokenCmd(v), newPushCardsCmd(v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("bingo-service v{{.Version}}\n")
	cmd.SilenceUsage = true

	return cmd
}

func newPlayCmd(v *viper.Viper) *cobra.Command {
	var cardName string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a single-player game in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f := cmd.Flags().Lookup("cards"); f != nil {
				_ = v.BindPFlag("cards_dir", f)
			}
			cfg := loadConfig(v, cmd)

			opts, err := gameOptions(cfg.Game)
			if err != nil {
				return err
			}

			cards, err := catalog.DirSource{Dir: cfg.Game.CardsDir}.Load(cmd.Context())
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			cat, err := catalog.New(rng, cards)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				return fmt.Errorf("no cards found in %s", cfg.Game.CardsDir)
			}

			return tui.Run(cat, opts, rng, cardName)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.String("cards", "./cards", "directory of card files")
	fs.StringVar(&cardName, "card", "", "card to start with (default: random)")
	fs.String("profile", "classic", "game profile: classic or hard")
	fs.Bool("timed", false, "enable the turn countdown")
	fs.Int("turn-seconds", bingo.DefaultTurnSeconds, "seconds per turn in timed mode")
	fs.Bool("skip-cooldown", false, "every other skip is free after a paid one")

	return cmd
}

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var userID, name string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(v, cmd)
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			token, err := jwt.GenerateToken(userID, name, cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.StringVar(&userID, "user", "", "user id placed in the token")
	fs.StringVar(&name, "name", "", "display name placed in the token")
	fs.String("jwt-secret", "", "signing secret (env: JWT_SECRET)")
	fs.Duration("token-duration", 24*time.Hour, "token lifetime (env: TOKEN_DURATION)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newPushCardsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push-cards",
		Short: "Upload a directory of card files to the cards bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(v, cmd)
			if cfg.S3.Bucket == "" {
				return fmt.Errorf("CARDS_BUCKET is not set")
			}

			s3Client, err := storage.NewS3Client(&cfg.S3)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			n, err := catalog.NewS3Source(s3Client, cfg.S3.Bucket, cfg.S3.Prefix).Push(ctx, cfg.Game.CardsDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d cards to %s/%s\n", n, cfg.S3.Bucket, cfg.S3.Prefix)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.String("cards-dir", "./cards", "directory of card files (env: CARDS_DIR)")
	fs.String("cards-bucket", "", "destination bucket (env: CARDS_BUCKET)")
	fs.String("cards-prefix", "cards/", "object prefix (env: CARDS_PREFIX)")

	return cmd
}

func gameOptions(cfg config.GameConfig) (bingo.Options, error) {
	profile, err := bingo.ProfileByName(cfg.Profile)
	if err != nil {
		return bingo.Options{}, fmt.Errorf("%w: %q", err, cfg.Profile)
	}
	return bingo.Options{
		Profile:      profile,
		Timed:        cfg.Timed,
		TurnSeconds:  cfg.TurnSeconds,
		SkipCooldown: cfg.SkipCooldown,
	}, nil
}
