package docmorph

import (
	"context"
	"strings"
)

// Heading is one entry of a structural outline.
type Heading struct {
	Level int
	Text  string
}

// StructuralOutline is a derived, read-only view of document structure:
// ordered headings plus paragraph, sentence, and word counts. The engine
// never mutates an outline after creation.
type StructuralOutline struct {
	Headings   []Heading
	Paragraphs int
	Sentences  int
	Words      int
}

// Outline derives the structural outline of a payload in any supported
// format. Non-markdown input is routed to markdown first.
func (e *Engine) Outline(ctx context.Context, data []byte, from Format) (*StructuralOutline, error) {
	md := string(data)
	if from != FormatMarkdown {
		converted, _, err := e.route(ctx, data, from, FormatMarkdown, &ConvertOptions{}, 0)
		if err != nil {
			return nil, err
		}
		md = string(converted)
	}
	return outlineMarkdown(md), nil
}

// outlineMarkdown walks markdown line by line, skipping fenced code.
func outlineMarkdown(md string) *StructuralOutline {
	outline := &StructuralOutline{}

	inFence := false
	inParagraph := false
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if reFence.MatchString(trimmed) {
			inFence = !inFence
			inParagraph = false
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" {
			inParagraph = false
			continue
		}

		if m := reATXHeading.FindStringSubmatch(trimmed); m != nil {
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			outline.Headings = append(outline.Headings, Heading{
				Level: level,
				Text:  strings.TrimSpace(m[1]),
			})
			inParagraph = false
			continue
		}

		if !inParagraph {
			outline.Paragraphs++
			inParagraph = true
		}
		outline.Words += len(strings.Fields(trimmed))
		outline.Sentences += countSentences(trimmed)
	}

	return outline
}

// countSentences counts terminal punctuation runs.
func countSentences(line string) int {
	count := 0
	inRun := false
	for _, r := range line {
		switch r {
		case '.', '!', '?':
			if !inRun {
				count++
				inRun = true
			}
		default:
			inRun = false
		}
	}
	return count
}
