package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

type AppFlags struct {
	GlobalConfigFile string
	ChannelID        string
	UserID           string
	WebhookURL       string
	Content          string
	Files            []string
	EmbedTitle       string
	EmbedDescription string
	Username         string
	AvatarURL        string
	TTS              bool
	NoWait           bool
}

// fileList collects a repeatable -file flag
type fileList []string

func (f *fileList) String() string {
	return strings.Join(*f, ",")
}

func (f *fileList) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func ParseFlags() AppFlags {
	flags := AppFlags{}

	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	flag.StringVar(&flags.ChannelID, "channel", "", "ID of the channel to post to")
	flag.StringVar(&flags.UserID, "user", "", "ID of the user to message directly")
	flag.StringVar(&flags.WebhookURL, "webhook", "", "Webhook URL to execute")

	content := flag.String("message", "", "Message text")
	contentAlias := flag.String("m", "", "Alias for -message")

	var files fileList
	flag.Var(&files, "file", "File to attach (repeatable)")

	flag.StringVar(&flags.EmbedTitle, "embed-title", "", "Title of an embed to include")
	flag.StringVar(&flags.EmbedDescription, "embed-description", "", "Description of an embed to include")
	flag.StringVar(&flags.Username, "username", "", "Display name override (webhook only)")
	flag.StringVar(&flags.AvatarURL, "avatar-url", "", "Avatar URL override (webhook only)")
	flag.BoolVar(&flags.TTS, "tts", false, "Send as text-to-speech")
	flag.BoolVar(&flags.NoWait, "no-wait", false, "Do not ask the server to return the created webhook message; it is read back from channel history, which needs a bot token")

	flag.Parse()

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *content != "" {
		flags.Content = *content
	} else {
		flags.Content = *contentAlias
	}
	flags.Files = files

	targets := 0
	for _, v := range []string{flags.ChannelID, flags.UserID, flags.WebhookURL} {
		if v != "" {
			targets++
		}
	}
	if targets != 1 {
		fmt.Fprintln(os.Stderr, "[FATAL] exactly one of -channel, -user or -webhook is required")
		os.Exit(1)
	}

	return flags
}
