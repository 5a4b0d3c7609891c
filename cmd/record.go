package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	recordTestID       string
	recordA11yRef      string
	recordSelector     string
	recordInputs       []string
	recordInputJSON    string
	recordFailCode     string
	recordFailMessage  string
	recordScreen       string
	recordURL          string
	recordVisible      []string
	recordA11y         []string
	recordDurationMs   int64
	recordScreenshot   string
	recordScreenWidth  int
	recordScreenHeight int
)

var recordCmd = &cobra.Command{
	Use:   "record <tool>",
	Short: "Record one step into the current session",
	Long: `Record one tool invocation with its outcome and the observed screen.

Input is given as repeated --input key=value pairs or one --input-json
object. Typed text into sensitive fields is redacted before it is written.
A step fails when --error-code is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid := currentSessionID()
		if sid == "" {
			return fmt.Errorf("no session: run 'knowledge start' first or pass --session")
		}

		input, err := parseInput(recordInputJSON, recordInputs)
		if err != nil {
			return err
		}

		target, err := internal.TargetFromFields(recordTestID, recordA11yRef, recordSelector)
		if err != nil {
			return err
		}

		outcome := internal.Succeeded()
		if recordFailCode != "" {
			outcome = internal.Failed(recordFailCode, recordFailMessage)
		}

		nodes, err := parseA11yNodes(recordA11y)
		if err != nil {
			return err
		}

		visible := make([]internal.TestIDItem, 0, len(recordVisible))
		for _, id := range recordVisible {
			visible = append(visible, internal.TestIDItem{TestID: id, Visible: true})
		}

		params := internal.RecordStepParams{
			SessionID: sid,
			ToolName:  args[0],
			Input:     input,
			Target:    target,
			Outcome:   outcome,
			Observation: internal.DefaultObservation(internal.ScreenState{
				CurrentScreen: recordScreen,
				CurrentURL:    recordURL,
			}, visible, nodes),
		}
		if cmd.Flags().Changed("duration") {
			d := recordDurationMs
			params.DurationMs = &d
		}

		if recordScreenshot != "" {
			data, err := os.ReadFile(recordScreenshot)
			if err != nil {
				return fmt.Errorf("failed to read screenshot: %w", err)
			}
			name := strings.TrimSuffix(filepath.Base(recordScreenshot), filepath.Ext(recordScreenshot))
			saved, err := store.SaveScreenshot(sid, name, data)
			if err != nil {
				return err
			}
			params.Screenshot = &internal.Screenshot{Path: saved, Width: recordScreenWidth, Height: recordScreenHeight}
		}

		path, err := store.RecordStep(params)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// parseInput merges a JSON object with key=value pairs; pairs win
func parseInput(rawJSON string, pairs []string) (map[string]interface{}, error) {
	input := map[string]interface{}{}
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &input); err != nil {
			return nil, &internal.ValidationError{Field: "input-json", Reason: err.Error()}
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, &internal.ValidationError{Field: "input", Reason: fmt.Sprintf("%q is not key=value", p)}
		}
		input[key] = value
	}
	if len(input) == 0 {
		return nil, nil
	}
	return input, nil
}

// parseA11yNodes reads ref=role:name specs; ref and role may be empty
// ("=button:Send", "e4=:Send") but a node needs a role or a name
func parseA11yNodes(specs []string) ([]internal.A11yNode, error) {
	var nodes []internal.A11yNode
	for _, spec := range specs {
		ref, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, &internal.ValidationError{Field: "a11y", Reason: fmt.Sprintf("%q is not ref=role:name", spec)}
		}
		role, name, _ := strings.Cut(rest, ":")
		node := internal.A11yNode{
			Ref:  strings.TrimSpace(ref),
			Role: strings.TrimSpace(role),
			Name: strings.TrimSpace(name),
		}
		if node.Role == "" && node.Name == "" {
			return nil, &internal.ValidationError{Field: "a11y", Reason: fmt.Sprintf("%q has neither role nor name", spec)}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordTestID, "test-id", "", "data-testid of the target element")
	recordCmd.Flags().StringVar(&recordA11yRef, "a11y-ref", "", "Accessibility ref of the target element")
	recordCmd.Flags().StringVar(&recordSelector, "selector", "", "CSS selector of the target element")
	recordCmd.Flags().StringArrayVar(&recordInputs, "input", nil, "Tool input as key=value (repeatable)")
	recordCmd.Flags().StringVar(&recordInputJSON, "input-json", "", "Tool input as a JSON object")
	recordCmd.Flags().StringVar(&recordFailCode, "error-code", "", "Mark the step failed with this error code")
	recordCmd.Flags().StringVar(&recordFailMessage, "error-message", "", "Error message of a failed step")
	recordCmd.Flags().StringVar(&recordScreen, "screen", "", "Screen observed after the step")
	recordCmd.Flags().StringVar(&recordURL, "url", "", "URL observed after the step")
	recordCmd.Flags().StringSliceVar(&recordVisible, "visible", nil, "data-testids visible after the step")
	recordCmd.Flags().StringArrayVar(&recordA11y, "a11y", nil, "Accessibility node visible after the step, as ref=role:name (repeatable)")
	recordCmd.Flags().Int64Var(&recordDurationMs, "duration", 0, "Step duration in milliseconds")
	recordCmd.Flags().StringVar(&recordScreenshot, "screenshot", "", "PNG file to store with the step")
	recordCmd.Flags().IntVar(&recordScreenWidth, "screenshot-width", 0, "Screenshot width in pixels")
	recordCmd.Flags().IntVar(&recordScreenHeight, "screenshot-height", 0, "Screenshot height in pixels")
}
