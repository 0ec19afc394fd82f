package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"milo-interpreter/internal/models"
	"milo-interpreter/internal/orchestrator"
)

type askOptions struct {
	audioPath    string
	mimeType     string
	language     string
	contactsPath string
}

func newAskCommand() *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [utterance]",
		Short: "Interpret one utterance (or one audio file) and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.audioPath == "" && len(args) == 0 {
				return fmt.Errorf("an utterance or --audio is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			book, err := readContacts(opts.contactsPath)
			if err != nil {
				return err
			}

			var resp *orchestrator.Response
			if opts.audioPath != "" {
				audio, err := os.ReadFile(opts.audioPath)
				if err != nil {
					return fmt.Errorf("read audio: %w", err)
				}
				mimeType := opts.mimeType
				if mimeType == "" {
					mimeType = mime.TypeByExtension(filepath.Ext(opts.audioPath))
				}
				resp = a.orchestrator.HandleAudioAndDispatch(ctx, orchestrator.AudioRequest{
					Audio:    audio,
					MimeType: mimeType,
					Language: opts.language,
					Contacts: book,
				})
			} else {
				resp = a.orchestrator.HandleText(ctx, orchestrator.Request{
					Prompt:   strings.Join(args, " "),
					Contacts: book,
				})
			}

			if resp.Failed() {
				return fmt.Errorf("%s", resp.Message)
			}
			return printResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&opts.audioPath, "audio", "", "audio file to transcribe and interpret")
	cmd.Flags().StringVar(&opts.mimeType, "mime-type", "", "audio MIME type (default: from file extension)")
	cmd.Flags().StringVar(&opts.language, "language", "en", "spoken language hint for --audio")
	cmd.Flags().StringVar(&opts.contactsPath, "contacts", "", "JSON file with [{\"name\":..., \"address\":...}]")
	return cmd
}

func readContacts(path string) ([]models.Contact, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}
	var book []models.Contact
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parse contacts %s: %w", path, err)
	}
	return book, nil
}

func printResponse(cmd *cobra.Command, resp *orchestrator.Response) error {
	out := map[string]interface{}{}
	if resp.Transcription != nil {
		out["transcription"] = resp.Transcription.Transcription
	}
	if resp.Intent != nil {
		out["intent"] = resp.Intent
	}
	if resp.Conversation != nil {
		out["conversation"] = resp.Conversation
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
