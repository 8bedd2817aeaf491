package usecases

// LetterDiff lists assignment letters found on one side of a comparison only.
type LetterDiff struct {
	MissingInSecond []string // letters of the first collection with no partner in the second
	MissingInFirst  []string // letters of the second collection with no partner in the first
}

// Empty reports whether both collections carry the same letters.
func (d LetterDiff) Empty() bool {
	return len(d.MissingInSecond) == 0 && len(d.MissingInFirst) == 0
}

// CompareLetters matches the letters of two exported assignment collections one to one,
// so a street split into three buffers needs three partners. Empty and UNNAMED letters
// are ignored on both sides.
func CompareLetters(first, second []string) LetterDiff {
	var diff LetterDiff
	used := make([]bool, len(second))
	for _, l := range first {
		if ignoredLetter(l) {
			continue
		}
		found := false
		for j, r := range second {
			if !used[j] && r == l {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			diff.MissingInSecond = append(diff.MissingInSecond, l)
		}
	}
	for j, r := range second {
		if !used[j] && !ignoredLetter(r) {
			diff.MissingInFirst = append(diff.MissingInFirst, r)
		}
	}
	return diff
}

func ignoredLetter(l string) bool {
	return l == "" || l == "UNNAMED"
}
