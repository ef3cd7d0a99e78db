package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nomagicln/propshrink/pkg/config"
	"github.com/nomagicln/propshrink/pkg/expr"
	"github.com/nomagicln/propshrink/pkg/gens"
	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/property"
)

// ErrorFormatter provides user-friendly error messages.
type ErrorFormatter struct{}

// NewErrorFormatter creates a new error formatter.
func NewErrorFormatter() *ErrorFormatter {
	return &ErrorFormatter{}
}

// FormatError formats an error into a user-friendly message.
func (f *ErrorFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var (
		compileErr  *expr.CompileError
		unknownGen  *gens.UnknownGeneratorError
		validation  *config.ValidationError
		notFound    *history.NotFoundError
		panicErr    *property.PanicError
		argumentErr *property.ArgumentError
	)
	switch {
	case errors.As(err, &compileErr):
		return f.formatCompileError(compileErr)
	case errors.As(err, &unknownGen):
		return f.formatUnknownGeneratorError(err, unknownGen)
	case errors.As(err, &validation):
		return f.formatValidationError(validation)
	case errors.As(err, &notFound):
		return f.formatNotFoundError(notFound)
	case errors.As(err, &panicErr):
		return fmt.Sprintf("Error: The property panicked: %v\n\nThe panic is reported as an error and the run was stopped.", panicErr.Value)
	case errors.As(err, &argumentErr):
		return fmt.Sprintf("Error: %s\n\nCheck that the generators produce the types the property expects.", argumentErr)
	}
	return fmt.Sprintf("Error: %s", err)
}

func (f *ErrorFormatter) formatCompileError(err *expr.CompileError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: Could not compile property %q.\n", err.Source))
	sb.WriteString(fmt.Sprintf("Reason: %v\n\n", err.Err))
	sb.WriteString("Arguments are named a, b, c, ... in generator order. Example:\n")
	sb.WriteString("  propshrink check --expr 'Add(a, b) < 100' --gen int --gen int\n\n")
	sb.WriteString("To see the available functions, use:\n")
	sb.WriteString("  propshrink rules")
	return sb.String()
}

func (f *ErrorFormatter) formatUnknownGeneratorError(full error, err *gens.UnknownGeneratorError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s.\n\n", full))

	var known []string
	for _, n := range gens.Names() {
		known = append(known, n[0])
	}
	if suggestions := f.SuggestSimilar(err.Spec, known); len(suggestions) > 0 {
		sb.WriteString("Did you mean:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  %s\n", s))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("To see all generators, use:\n")
	sb.WriteString("  propshrink generators")
	return sb.String()
}

func (f *ErrorFormatter) formatValidationError(err *config.ValidationError) string {
	var sb strings.Builder
	sb.WriteString("Error: Invalid configuration.\n\n")
	for _, issue := range err.Issues {
		sb.WriteString(fmt.Sprintf("  - %s\n", issue))
	}
	sb.WriteString("\nFix the values in ")
	if err.Path != "" {
		sb.WriteString(err.Path)
	} else {
		sb.WriteString("the config file")
	}
	sb.WriteString(" or override them with flags.")
	return sb.String()
}

func (f *ErrorFormatter) formatNotFoundError(err *history.NotFoundError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: No recorded failure with id '%s'.\n\n", err.ID))
	sb.WriteString("To see recorded failures, use:\n")
	sb.WriteString("  propshrink history list")
	return sb.String()
}

// SuggestSimilar suggests candidates close to name.
func (f *ErrorFormatter) SuggestSimilar(name string, candidates []string) []string {
	if len(candidates) == 0 || name == "" {
		return nil
	}

	var suggestions []string
	nameLower := strings.ToLower(name)

	for _, c := range candidates {
		cLower := strings.ToLower(c)

		if nameLower == cLower {
			return []string{c}
		}

		if strings.HasPrefix(cLower, nameLower) || strings.HasPrefix(nameLower, cLower) {
			suggestions = append(suggestions, c)
			continue
		}

		if f.levenshteinDistance(nameLower, cLower) <= 2 {
			suggestions = append(suggestions, c)
		}
	}

	return suggestions
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
func (f *ErrorFormatter) levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(s2)]
}
