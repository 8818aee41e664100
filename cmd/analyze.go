package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

const analyzeSystemPrompt = `You are an NFL defensive performance analyst. You are given structured data
from a tackle metrics tool built on Big Data Bowl tracking data, and a question from a coach or scout.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers and player names when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise. Compare players within the same position only.
- A null value means no data was observed (no tracking rows, or a zero denominator).

Metrics glossary:
- max_s: peak speed in yards/s over all loaded tracking frames.
- max_a: peak acceleration in yards/s² over all loaded tracking frames.
- total_tackles: solo tackles + 0.5 × assists.
- tackle_efficiency: total_tackles ÷ (total_tackles + missed tackles), 0..1.
- bmi: body-mass index from listed height and weight.
- tackle_factor: total_tackles ÷ the position's average total_tackles. 1.0 is position average.
- p75: the 75th percentile of tackle_factor within the position.
- category: "Above" when tackle_factor is strictly greater than p75, else "Below".`

var (
	analyzeModel    string
	analyzeAPIKey   string
	analyzePosition string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <hash-prefix> <question>",
	Short: "AI-powered grounded analysis of a stored run (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().StringVar(&analyzePosition, "position", "", "only send rows of this position code")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with hash prefix %q", args[0])
	}
	question := args[1]

	rows, err := db.GetFeatureRows(run.Hash, analyzePosition)
	if err != nil {
		return fmt.Errorf("query feature rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no feature rows (position %q)", run.ShortHash(), analyzePosition)
	}
	positions, err := db.GetPositionStats(run.Hash)
	if err != nil {
		return fmt.Errorf("query position stats: %w", err)
	}

	contextJSON, err := buildRunContext(*run, positions, rows)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	log.WithField("rows", len(rows)).Debug("sending run context")
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

// buildRunContext serialises a run's summary, position thresholds and
// feature rows into compact JSON.
func buildRunContext(run model.RunSummary, positions []model.PositionAggregate, rows []model.FeatureRow) (string, error) {
	type positionEntry struct {
		Position   string   `json:"position"`
		Players    int      `json:"players"`
		AvgTackles *float64 `json:"avg_total_tackles"`
		P75        *float64 `json:"p75_tackle_factor"`
		Above      int      `json:"above"`
	}
	type playerEntry struct {
		NflID      int64    `json:"nfl_id"`
		Name       string   `json:"name"`
		Position   string   `json:"position"`
		MaxA       *float64 `json:"max_a"`
		MaxS       *float64 `json:"max_s"`
		Efficiency *float64 `json:"tackle_efficiency"`
		BMI        *float64 `json:"bmi"`
		Factor     *float64 `json:"tackle_factor"`
		Category   string   `json:"category"`
	}

	pos := make([]positionEntry, 0, len(positions))
	for _, p := range positions {
		pos = append(pos, positionEntry{
			Position:   p.Position,
			Players:    p.Players,
			AvgTackles: round2(p.AvgTackles),
			P75:        round2(p.P75TackleFactor),
			Above:      p.Above,
		})
	}
	players := make([]playerEntry, 0, len(rows))
	for _, r := range rows {
		players = append(players, playerEntry{
			NflID:      r.NflID,
			Name:       r.DisplayName,
			Position:   r.Position,
			MaxA:       round2(r.MaxAccel),
			MaxS:       round2(r.MaxSpeed),
			Efficiency: round2(r.TackleEfficiency),
			BMI:        round2(r.BMI),
			Factor:     round2(r.TackleFactor),
			Category:   r.Category,
		})
	}

	doc := map[string]interface{}{
		"subject":       "run",
		"weeks_loaded":  run.Weeks,
		"seasons":       run.Seasons,
		"games":         run.Games,
		"tackle_events": run.TackleEvents,
		"positions":     pos,
		"players":       players,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds v to 2 decimal places; missing values become nil (JSON null).
func round2(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := math.Round(v*100) / 100
	return &r
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
