package demo

import "strings"

// Example is a canned search the demo page can fill in.
type Example struct {
	Label string
	Type  SearchType
	Query string
	Size  int
}

// Examples lists the canned searches for each input-taking type.
var Examples = []Example{
	{Label: "chr1:g.35366C>T", Type: TypeVariant, Query: "chr1:g.35366C>T"},
	{Label: "chr2:g.17142_17143insA", Type: TypeVariant, Query: "chr2:g.17142_17143insA"},
	{Label: "chrMT:g.8271_8279del", Type: TypeVariant, Query: "chrMT:g.8271_8279del"},
	{Label: "dbnsfp.genename:CDK*", Type: TypeQuery, Query: "dbnsfp.genename:CDK*", Size: 10},
	{Label: "exac.ac.ac_adj:[76640 TO 80000]", Type: TypeQuery, Query: "exac.ac.ac_adj:[76640 TO 80000]", Size: 10},
	{Label: "chr1:69000-70000", Type: TypeQuery, Query: "chr1:69000-70000", Size: 10},
}

// ExamplesFor returns the canned searches of one type.
func ExamplesFor(t SearchType) []Example {
	var out []Example
	for _, e := range Examples {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// minSuggestLength is the shortest input that triggers suggestions.
const minSuggestLength = 2

// maxSuggestions caps one suggestion response.
const maxSuggestions = 50

// lastTerm returns the text after the final comma, ignoring spaces that
// follow the comma.
func lastTerm(input string) (head, last string) {
	i := strings.LastIndex(input, ",")
	if i < 0 {
		return "", input
	}
	return input[:i], strings.TrimLeft(input[i+1:], " \t")
}

// Suggest returns the field names containing the last comma-separated term
// of input, case-insensitively.
func Suggest(fields []string, input string) []string {
	if len(input) < minSuggestLength {
		return nil
	}
	_, term := lastTerm(input)
	term = strings.ToLower(term)

	var out []string
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			out = append(out, f)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

// Complete replaces the last term of input with choice and appends the
// separator so the next field can be typed.
func Complete(input, choice string) string {
	head, _ := lastTerm(input)
	if head == "" && !strings.Contains(input, ",") {
		return choice + ", "
	}
	terms := splitTerms(head)
	terms = append(terms, choice, "")
	return strings.Join(terms, ", ")
}

func splitTerms(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		if i > 0 {
			parts[i] = strings.TrimLeft(p, " \t")
		}
	}
	return parts
}
