package backend

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// BuildTranslationPrompt renders the default prompt used to turn a natural
// language instruction into code.
func BuildTranslationPrompt(instruction, codeContext string) string {
	var b strings.Builder
	b.WriteString("Convert the following instruction into code. Respond with code only.\n")
	if strings.TrimSpace(codeContext) != "" {
		b.WriteString("\nContext:\n")
		b.WriteString(codeContext)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nInstruction: %s\nCode:\n", strings.TrimSpace(instruction))
	return b.String()
}

// Translate is the default TranslateInstruction: it builds the translation
// prompt and delegates to b.Generate with default sampling parameters.
func Translate(ctx context.Context, b Backend, instruction, codeContext string) (string, error) {
	params := DefaultGenerateParams()
	params.Temperature = 0.3
	out, err := b.Generate(ctx, BuildTranslationPrompt(instruction, codeContext), params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CheckWeightFile returns ErrWeightFileNotFound (wrapped with the path) when
// path does not name an existing regular file.
func CheckWeightFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrWeightFileNotFound)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrWeightFileNotFound, path)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrWeightFileNotFound, path)
	}
	return nil
}
