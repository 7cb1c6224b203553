package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
	"github.com/zhouzirui/trait-interview/backend/internal/service/ai"
	"github.com/zhouzirui/trait-interview/backend/internal/service/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/service/transcript"
)

func newRunCmd() *cobra.Command {
	var (
		candidate     string
		transcriptDir string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interview interactively, one answer per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Interview)
			if err != nil {
				return err
			}
			chatModel, err := ai.NewChatModel(cmd.Context(), cfg.AI)
			if err != nil {
				return fmt.Errorf("initialize AI model: %w", err)
			}

			var recorder transcript.Recorder = transcript.NewMemoryRecorder()
			if transcriptDir != "" {
				files, err := transcript.NewFileRecorder(transcriptDir)
				if err != nil {
					return err
				}
				recorder = files
			}

			svc, err := interview.NewService(interview.Options{
				Catalog:           catalog,
				Agents:            agent.NewLLMFactory(chatModel, log),
				Recorder:          recorder,
				CapabilityTimeout: cfg.Interview.CapabilityTimeout,
				Logger:            log,
			})
			if err != nil {
				return err
			}
			return rehearse(cmd.Context(), svc, candidate, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&candidate, "name", "", "candidate name")
	cmd.Flags().StringVar(&transcriptDir, "transcripts", "", "write transcript files to this directory")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// interviewer is the part of the interview service the terminal loop drives.
type interviewer interface {
	Start(ctx context.Context, req interview.StartRequest) (interview.StartResult, error)
	Submit(ctx context.Context, sessionID, responseText string) (interview.Reply, error)
}

// rehearse asks each question on out and reads one answer per line from in until the
// interview completes or in is exhausted.
func rehearse(ctx context.Context, svc interviewer, candidate string, in io.Reader, out io.Writer) error {
	started, err := svc.Start(ctx, interview.StartRequest{CandidateName: candidate})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	sessionID, question := started.SessionID, started.Question
	for {
		fmt.Fprintf(out, "\nQ: %s\n> ", question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\ninput closed, session %s left open\n", sessionID)
			return nil
		}

		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			continue
		}

		reply, err := svc.Submit(ctx, sessionID, answer)
		if err != nil {
			if errors.Is(err, interview.ErrCapability) {
				fmt.Fprintf(out, "[retry] %v\n", err)
				continue
			}
			return err
		}
		if reply.TranscriptWarning != "" {
			fmt.Fprintf(out, "[warn] %s\n", reply.TranscriptWarning)
		}
		if reply.Score != nil {
			fmt.Fprintf(out, "[score] %.1f\n", *reply.Score)
		}

		switch reply.Message {
		case interview.MessageCompleted:
			fmt.Fprintln(out, "\nInterview complete. Thank you!")
			return nil
		case interview.MessageAdvanceInsufficient, interview.MessageAdvanceUnsatisfied:
			fmt.Fprintln(out, "[next scenario]")
		}
		question = reply.Question
	}
}

func printTraits(out io.Writer, catalog trait.Catalog) {
	for i, t := range catalog.List() {
		fmt.Fprintf(out, "%d. %s\n   %s\n   %s\n", i+1, t.Name, t.Scenario, t.BaseQuestion)
	}
}
