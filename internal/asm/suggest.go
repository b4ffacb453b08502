package asm

// nearestMnemonic returns the known mnemonic closest to the given (already
// upper-cased) word, or "" when nothing is close enough to be worth hinting.
func nearestMnemonic(word string) string {
	best := ""
	bestDist := len(word)/2 + 1 // anything further is noise
	for name := range mnemonics {
		d := editDistance(word, name)
		if d < bestDist || (d == bestDist && best != "" && name < best) {
			best = name
			bestDist = d
		}
	}
	return best
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
