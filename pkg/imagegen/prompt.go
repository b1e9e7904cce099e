package imagegen

import (
	"fmt"
	"strings"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
)

// FormatPrompt converts a PromptSpec into the prompt string sent to the image
// model. The refined intent leads, optional descriptors follow, then the
// fixed sketch constraints.
func FormatPrompt(spec entity.PromptSpec) string {
	promptParts := []string{spec.RefinedIntent}

	if spec.SubjectMatter != "" {
		promptParts = append(promptParts, fmt.Sprintf("Subject: %s", spec.SubjectMatter))
	}
	if spec.Mood != "" {
		promptParts = append(promptParts, fmt.Sprintf("Mood: %s", spec.Mood))
	}
	if spec.Technique != "" {
		promptParts = append(promptParts, fmt.Sprintf("Technique: %s", spec.Technique))
	}
	if spec.CompositionNotes != "" {
		promptParts = append(promptParts, fmt.Sprintf("Composition: %s", spec.CompositionNotes))
	}

	promptParts = append(promptParts,
		"Style: rough sketch",
		"black and white only",
		"thick outlines",
		"minimal interior detail",
		"clean background",
		"pencil or loose ink drawing",
	)

	prompt := strings.Join(promptParts, ", ")

	if len(spec.NegativeConstraints) > 0 {
		negative := strings.Join(spec.NegativeConstraints, ", ")
		prompt += fmt.Sprintf("\n\nAvoid: %s, color, gradients, textures, photorealism, typography", negative)
	}

	return prompt
}

// BuildRefinePrompt composes the editing instruction for one refine call:
// the original generation's compiled intent anchors the edit, prior refine
// instructions from the same cycle chain before the new one.
func BuildRefinePrompt(refinePrompt, originalContext string, refineHistory []string) string {
	var b strings.Builder

	b.WriteString("You are editing an existing concept sketch. Apply the requested modification while preserving the sketch's composition, style, and technique.\n")

	if originalContext != "" {
		b.WriteString(fmt.Sprintf("\nOriginal concept: %s\n", originalContext))
	}

	if len(refineHistory) > 0 {
		b.WriteString("\nModifications already applied:\n")
		for i, h := range refineHistory {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, h))
		}
	}

	b.WriteString(fmt.Sprintf("\nNew modification: %s\n", refinePrompt))

	return b.String()
}
