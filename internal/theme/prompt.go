package theme

import (
	"strings"
)

const (
	OutputWidth  = 1080
	OutputHeight = 1920
	AspectRatio  = "9:16"
)

// ReferenceSuffix is appended to the instruction when a style reference image
// travels with the request.
const ReferenceSuffix = "USE THIS REFERENCE IMAGE AS A STYLE GUIDE for lighting, atmosphere, and overall aesthetic. " +
	"Match the style shown in the reference while keeping the person's appearance unchanged."

var strictFaceRules = []string{
	"Copy the face(s) from the captured image exactly; pixel-level preservation is required",
	"Do not modify, enhance, smooth, or reshape any facial feature",
	"Preserve eyes, nose, mouth, chin, jawline, skin tone, skin texture, wrinkles, freckles, moles and facial hair",
	"No beautification and no AI retouching of the face",
	"Only lighting on the face may change to match the scene",
}

var identityFaceRules = []string{
	"Use the exact face(s) from the captured image with no exceptions",
	"If two people are in the captured image, keep both of them in the output",
	"Keep face shape, facial structure, proportions and bone structure identical",
	"Do not change race, ethnicity, or skin tone",
	"Adjust face lighting to match the surrounding scene",
}

var stylizedFaceRules = []string{
	"Use the person(s) in the captured image as the basis for the stylized character(s)",
	"Keep a clear resemblance while applying the art style",
	"Adjust face lighting to match the surrounding scene",
}

var outputRules = []string{
	"Ignore the aspect ratio of any reference image",
	"Output must be portrait orientation, 1080x1920 pixels (" + AspectRatio + ")",
	"Do not produce square or landscape images",
	"Do not add captions, logos, or watermarks",
}

// Instruction renders the prompt sent with the captured photo.
func (t Theme) Instruction() string {
	var b strings.Builder
	b.Grow(2048)

	b.WriteString("Transform this photo into " + t.Subject + ".\n\n")

	switch t.Face {
	case FaceStylized:
		b.WriteString("FACE GUIDELINES:\n")
		writeLines(&b, stylizedFaceRules)
	case FaceIdentity:
		b.WriteString("FACE PRESERVATION (MANDATORY):\n")
		writeLines(&b, identityFaceRules)
		b.WriteString("Any change to facial features is a failure.\n")
	default:
		b.WriteString("FACE PRESERVATION (HIGHEST PRIORITY):\n")
		writeLines(&b, strictFaceRules)
		b.WriteString("Any change to facial features is a failure. When in doubt, preserve.\n")
	}
	b.WriteString("\n")

	b.WriteString("REQUIRED CHANGES:\n")
	writeSection(&b, "Clothing (mandatory, no exceptions)", uniq(t.Attire))
	writeLines(&b, uniq(t.Scene))
	b.WriteString("\n")

	b.WriteString("STYLE TO APPLY:\n")
	style := uniq(t.Style)
	if t.Face != FaceStylized {
		style = append(style, "Keep the face as the central focus with crystal-clear detail")
	}
	writeLines(&b, style)
	b.WriteString("\n")

	b.WriteString("OUTPUT FORMAT:\n")
	writeLines(&b, outputRules)

	return strings.TrimSpace(b.String())
}

// InstructionWithReference is Instruction plus the style guide suffix.
func (t Theme) InstructionWithReference() string {
	return t.Instruction() + "\n\n" + ReferenceSuffix
}

func writeLines(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString("- " + line + "\n")
	}
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ":\n")
	for _, line := range lines {
		b.WriteString("  * " + line + "\n")
	}
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
