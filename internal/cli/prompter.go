package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ewhitmore/ledgible/internal/model"
)

// Prompter implements the interactive CLI flow for reviewing rule proposals.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ReviewResult carries the outcome of a proposal review.
type ReviewResult struct {
	SelectedIDs []string
	Accepted    bool
}

// ReviewProposal walks the user through a rule proposal: confirm the rule,
// and choose which of the candidate transactions it should also be applied to.
// Declining leaves the original manual assignment in place.
func (p *Prompter) ReviewProposal(ctx context.Context, proposal *model.Proposal, businessName string, candidates []model.Transaction) (ReviewResult, error) {
	select {
	case <-ctx.Done():
		return ReviewResult{}, ctx.Err()
	default:
	}

	content := fmt.Sprintf("Pattern:  %s\nBusiness: %s",
		BoldStyle.Render(proposal.Pattern),
		SuccessStyle.Render(businessName))
	if _, err := fmt.Fprintln(p.writer, RenderBox("Proposed Rule", content)); err != nil {
		return ReviewResult{}, fmt.Errorf("failed to write proposal box: %w", err)
	}

	if len(candidates) == 0 {
		if _, err := fmt.Fprintln(p.writer, SubtleStyle.Render("No other transactions match this pattern.")); err != nil {
			return ReviewResult{}, fmt.Errorf("failed to write candidate note: %w", err)
		}

		choice, err := p.promptChoice(ctx, "Create rule? [y/n]", []string{"y", "n"})
		if err != nil {
			return ReviewResult{}, err
		}
		return ReviewResult{Accepted: choice == "y"}, nil
	}

	selected := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		selected[c.ID] = true
	}

	for {
		if err := p.printCandidates(candidates, selected); err != nil {
			return ReviewResult{}, err
		}

		if _, err := fmt.Fprintln(p.writer, "  [A] Accept rule and apply to selected\n  [T] Toggle candidates (e.g. 1,3)\n  [N] Accept rule, apply to none\n  [C] Cancel"); err != nil {
			return ReviewResult{}, fmt.Errorf("failed to write options: %w", err)
		}

		choice, err := p.promptChoice(ctx, "Choice", []string{"a", "t", "n", "c"})
		if err != nil {
			return ReviewResult{}, err
		}

		switch choice {
		case "a":
			result := ReviewResult{Accepted: true, SelectedIDs: make([]string, 0, len(candidates))}
			for _, c := range candidates {
				if selected[c.ID] {
					result.SelectedIDs = append(result.SelectedIDs, c.ID)
				}
			}
			return result, nil
		case "n":
			return ReviewResult{Accepted: true, SelectedIDs: []string{}}, nil
		case "c":
			if _, err := fmt.Fprintln(p.writer, FormatInfo("Canceled. The manual assignment is kept.")); err != nil {
				return ReviewResult{}, fmt.Errorf("failed to write cancel note: %w", err)
			}
			return ReviewResult{}, nil
		case "t":
			if err := p.toggleCandidates(ctx, candidates, selected); err != nil {
				return ReviewResult{}, err
			}
		}
	}
}

func (p *Prompter) printCandidates(candidates []model.Transaction, selected map[string]bool) error {
	if _, err := fmt.Fprintln(p.writer, FormatPrompt("Also matches:")); err != nil {
		return fmt.Errorf("failed to write candidate header: %w", err)
	}

	for i, c := range candidates {
		marker := SubtleStyle.Render("[ ]")
		if selected[c.ID] {
			marker = SuccessStyle.Render("[x]")
		}
		line := fmt.Sprintf("  %s %d. %s  %s  %.2f",
			marker, i+1, c.Date.Format("2006-01-02"), c.Description, c.Amount)
		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return fmt.Errorf("failed to write candidate: %w", err)
		}
	}
	return nil
}

func (p *Prompter) toggleCandidates(ctx context.Context, candidates []model.Transaction, selected map[string]bool) error {
	input, err := p.promptLine(ctx, "Numbers to toggle")
	if err != nil {
		return err
	}

	for _, field := range strings.Split(input, ",") {
		n, convErr := strconv.Atoi(strings.TrimSpace(field))
		if convErr != nil || n < 1 || n > len(candidates) {
			if _, err := fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("Ignoring invalid number: %q", strings.TrimSpace(field)))); err != nil {
				return fmt.Errorf("failed to write warning: %w", err)
			}
			continue
		}
		id := candidates[n-1].ID
		selected[id] = !selected[id]
	}
	return nil
}

// promptChoice reads input until the user enters one of the valid choices.
func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		input, err := p.promptLine(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("Please enter one of: %s", strings.Join(valid, ", ")))); err != nil {
			return "", fmt.Errorf("failed to write warning: %w", err)
		}
	}
}

func (p *Prompter) promptLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}
