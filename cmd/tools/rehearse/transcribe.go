package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
	"github.com/zhouzirui/trait-interview/backend/internal/service/speech"
)

func newTranscribeCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file with the configured speech provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if !cfg.Speech.Enabled {
				return errors.New("语音服务未启用，请先配置 SPEECH_* 或 AZURE_WHISPER_* 环境变量")
			}

			transcriber, err := speech.NewTranscriber(cfg.Speech.Model(), log)
			if err != nil {
				return err
			}

			audioPath := args[0]
			file, err := os.Open(audioPath)
			if err != nil {
				return fmt.Errorf("open audio file: %w", err)
			}
			defer file.Close()

			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
			if format == "" {
				format = "wav"
			}
			if language == "" {
				language = cfg.Speech.ASRLanguage
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Speech.Timeout)
			defer cancel()

			sessionID := fmt.Sprintf("manual-%d", time.Now().UnixNano())
			log.Info().Str("session_id", sessionID).Str("format", format).Str("language", language).Msg("transcribing")

			resp, err := transcriber.Transcribe(ctx, &speechmodel.ASRRequest{
				SessionID: sessionID,
				AudioData: file,
				Filename:  filepath.Base(audioPath),
				Format:    format,
				Language:  language,
			})
			if err != nil {
				return fmt.Errorf("transcribe: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n(confidence %.2f, %dms)\n", resp.Text, resp.Confidence, resp.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "lang", "", "language code; defaults to SPEECH_ASR_LANGUAGE")
	return cmd
}
