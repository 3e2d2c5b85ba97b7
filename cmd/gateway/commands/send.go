package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"e2egateway/internal/app"
	"e2egateway/internal/domain"
	"e2egateway/internal/services/message"
)

// recipient key flags shared by all send subcommands
var (
	peerKey     string
	peerKeyFile string
)

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encrypt and send a message",
	}
	cmd.PersistentFlags().StringVar(&peerKey, "key", "", "recipient public key, public:<hex> (skips lookup)")
	cmd.PersistentFlags().StringVar(&peerKeyFile, "key-file", "", "file holding the recipient public key")
	cmd.AddCommand(sendTextCmd(), sendImageCmd(), sendVideoCmd(), sendFileCmd())
	return cmd
}

func keyOptions() []message.Option {
	switch {
	case peerKey != "":
		return []message.Option{message.WithKeyString(peerKey)}
	case peerKeyFile != "":
		return []message.Option{message.WithKeyFile(peerKeyFile)}
	}
	return nil
}

// deliver opens a connection, builds the message and sends it.
func deliver(cmd *cobra.Command, build func(c *app.Connection) (*message.Message, error)) error {
	return withConnection(cmd, func(ctx context.Context, c *app.Connection) error {
		m, err := build(c)
		if err != nil {
			return err
		}
		res, err := m.Send(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.MessageID)
		return nil
	})
}

func sendTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <to> <text>",
		Short: "Send a text message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deliver(cmd, func(c *app.Connection) (*message.Message, error) {
				return message.NewText(c, domain.Identity(args[0]), args[1], keyOptions()...), nil
			})
		},
	}
}

func sendImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <to> <path>",
		Short: "Send an image (legacy image message; prefer send file)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deliver(cmd, func(c *app.Connection) (*message.Message, error) {
				return message.NewImageFromFile(c, domain.Identity(args[0]), args[1], keyOptions()...)
			})
		},
	}
}

func sendVideoCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "video <to> <video> <thumbnail>",
		Short: "Send a video with its thumbnail",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deliver(cmd, func(c *app.Connection) (*message.Message, error) {
				return message.NewVideoFromFiles(c, domain.Identity(args[0]), args[1], args[2], duration, keyOptions()...)
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "video duration, e.g. 12s")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func sendFileCmd() *cobra.Command {
	var thumbnail, caption, rendering, mime string
	cmd := &cobra.Command{
		Use:   "file <to> <path>",
		Short: "Send a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := keyOptions()
			if thumbnail != "" {
				opts = append(opts, message.WithThumbnailFile(thumbnail))
			}
			if caption != "" {
				opts = append(opts, message.WithCaption(caption))
			}
			if mime != "" {
				opts = append(opts, message.WithMIME(mime))
			}
			if rendering != "" {
				r, err := domain.ParseRenderingType(rendering)
				if err != nil {
					return err
				}
				opts = append(opts, message.WithRendering(r))
			}
			return deliver(cmd, func(c *app.Connection) (*message.Message, error) {
				return message.NewFileFromPath(c, domain.Identity(args[0]), args[1], opts...)
			})
		},
	}
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "thumbnail image file")
	cmd.Flags().StringVar(&caption, "caption", "", "caption shown with the file")
	cmd.Flags().StringVar(&rendering, "rendering", "", "file, media or sticker (default: from MIME type)")
	cmd.Flags().StringVar(&mime, "mime", "", "MIME type (default: detected)")
	return cmd
}
