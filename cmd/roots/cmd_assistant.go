package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/community-roots/internal/geo"
	"github.com/nhle/community-roots/internal/model"
)

var errNoAPIKey = errors.New("no Gemini API key: set GEMINI_API_KEY or run `roots key set`")

var nearMe bool

// adviceCmd asks Rooty a single question.
var adviceCmd = &cobra.Command{
	Use:   "advice [question]",
	Short: "Ask Rooty a gardening question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdvice,
}

// suggestCmd turns an observation into maintenance tasks.
var suggestCmd = &cobra.Command{
	Use:   "suggest [observation]",
	Short: "Suggest maintenance tasks for something you noticed",
	Long: `Describe what you saw at a park and Rooty suggests concrete tasks.

Example:
  roots suggest "fallen branches by the playground, weeds in the rose beds"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

// discoverCmd searches for parks.
var discoverCmd = &cobra.Command{
	Use:   "discover [place]",
	Short: "Find parks near a place, or near you with --near-me",
	RunE:  runDiscover,
}

// parksCmd lists the parks the interactive interface would start with.
var parksCmd = &cobra.Command{
	Use:   "parks",
	Short: "List saved parks and their open tasks",
	Args:  cobra.NoArgs,
	RunE:  runParks,
}

func init() {
	discoverCmd.Flags().BoolVar(&nearMe, "near-me", false, "Search around your current location")
}

func runAdvice(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()
	if e.assistant == nil {
		return errNoAPIKey
	}

	reply := e.assistant.Advice(ctx, strings.Join(args, " "))
	out, err := glamour.Render(reply, "auto")
	if err != nil {
		e.log.Debug("markdown render failed", zap.Error(err))
		out = reply + "\n"
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()
	if e.assistant == nil {
		return errNoAPIKey
	}

	tasks := e.assistant.SuggestTasks(ctx, strings.Join(args, " "), time.Now())
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Rooty couldn't suggest any tasks for that.")
		return nil
	}
	writeTasks(cmd.OutOrStdout(), tasks)
	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()
	if e.assistant == nil {
		return errNoAPIKey
	}

	query := strings.Join(args, " ")
	if query == "" {
		query = e.cfg.Search.DefaultQuery
	}

	var near *model.Coordinates
	if nearMe {
		pos, err := geo.FromConfig(e.cfg.Location).Locate(ctx)
		if err != nil {
			return fmt.Errorf("locating you: %w", err)
		}
		near = &pos
	}

	parks := e.assistant.DiscoverParks(ctx, query, near, time.Now())
	if len(parks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No parks found.")
		return nil
	}
	writeParks(cmd.OutOrStdout(), parks)
	return nil
}

func runParks(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := loadEnv(ctx, true)
	if err != nil {
		return err
	}
	defer e.Close()

	state, err := initialState(ctx, e.cfg, e.snapshots, time.Now())
	if err != nil {
		return err
	}
	writeParks(cmd.OutOrStdout(), state.Parks)
	return nil
}

func writeParks(w io.Writer, parks []model.Park) {
	for _, p := range parks {
		fmt.Fprintf(w, "%s  (%s)\n", p.Name, english.Plural(len(p.OpenTasks()), "open task", ""))
		if p.Location != "" {
			fmt.Fprintf(w, "  %s\n", p.Location)
		}
		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", p.Description)
		}
		if p.MapURL != "" {
			fmt.Fprintf(w, "  Map: %s\n", p.MapURL)
		}
	}
}

func writeTasks(w io.Writer, tasks []model.Task) {
	for _, t := range tasks {
		fmt.Fprintf(w, "- [%s] %s\n", t.Urgency, t.Title)
		if t.Description != "" {
			fmt.Fprintf(w, "    %s\n", t.Description)
		}
	}
}
