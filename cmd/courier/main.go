package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/courier/internal/client"
	"github.com/aleister1102/courier/internal/config"
	"github.com/aleister1102/courier/internal/dispatch"
	"github.com/aleister1102/courier/internal/embed"
	"github.com/aleister1102/courier/internal/future"
	"github.com/aleister1102/courier/internal/logger"
	"github.com/aleister1102/courier/internal/message"
	"github.com/aleister1102/courier/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, zerolog.Nop())
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
	}

	appLogger, err := logger.NewWithSessionID(gCfg.LogConfig, uuid.NewString()[:8])
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}
	defer appLogger.Close()
	zLogger := *appLogger.GetZerolog()

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	c, err := client.New(gCfg, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	msg, sendErr := run(ctx, c, flags)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := c.Close(shutdownCtx); err != nil {
		zLogger.Warn().Err(err).Msg("Client did not shut down cleanly")
	}
	cancel()

	if sendErr != nil {
		zLogger.Error().Err(sendErr).Msg("Send failed")
		os.Exit(1)
	}
	fmt.Println(msg.ID)
}

func run(ctx context.Context, c *client.Client, flags AppFlags) (*models.Message, error) {
	var result *future.Future[*models.Message]

	if flags.WebhookURL != "" {
		hook, err := models.ParseWebhookURL(flags.WebhookURL)
		if err != nil {
			return nil, err
		}
		if flags.NoWait {
			// The created message is read back from its channel, so the
			// channel has to be known and cached first.
			if hook, err = c.FetchWebhook(ctx, hook).Await(ctx); err != nil {
				return nil, err
			}
			if _, err = c.FetchChannel(ctx, hook.ChannelID).Await(ctx); err != nil {
				return nil, err
			}
		}
		wd := message.NewWebhookDraft().
			SetDisplayName(flags.Username).
			SetWait(!flags.NoWait)
		if flags.AvatarURL != "" {
			avatar, err := url.Parse(flags.AvatarURL)
			if err != nil {
				return nil, err
			}
			if err := wd.SetDisplayAvatarURL(avatar); err != nil {
				return nil, err
			}
		}
		if err := fillDraft(wd.Draft, flags); err != nil {
			return nil, err
		}
		result = c.SendWebhook(ctx, wd, hook)
	} else {
		draft := message.NewDraft()
		if err := fillDraft(draft, flags); err != nil {
			return nil, err
		}
		target, err := resolveTarget(flags)
		if err != nil {
			return nil, err
		}
		result = c.Send(ctx, draft, target)
	}

	// Interrupting only stops waiting; the send itself runs to completion.
	return result.Await(ctx)
}

func fillDraft(draft *message.Draft, flags AppFlags) error {
	draft.Append(flags.Content).SetTTS(flags.TTS)

	for _, path := range flags.Files {
		if err := draft.AddAttachmentFile(path); err != nil {
			return err
		}
	}

	if flags.EmbedTitle != "" || flags.EmbedDescription != "" {
		draft.AddEmbed(embed.NewBuilder().
			WithTitle(flags.EmbedTitle).
			WithDescription(flags.EmbedDescription).
			WithTimestamp(time.Now()))
	}
	return nil
}

func resolveTarget(flags AppFlags) (dispatch.Target, error) {
	if flags.ChannelID != "" {
		id, err := models.ParseSnowflake(flags.ChannelID)
		if err != nil {
			return nil, err
		}
		return dispatch.ToChannel(&models.Channel{ID: id, Type: models.ChannelTypeGuildText}), nil
	}

	id, err := models.ParseSnowflake(flags.UserID)
	if err != nil {
		return nil, err
	}
	return dispatch.ToUser(&models.User{ID: id}), nil
}
