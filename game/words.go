package game

import (
	"bufio"
	"math/rand"
	"os"
)

// WordSource supplies the word choices offered to a drawer.
type WordSource interface {
	Sample(count int) []string
}

// WordBank draws choices across difficulty tiers: one word per tier while
// tiers remain, then random picks from the whole bank, never repeating a word
// within one sample.
type WordBank struct {
	tiers [][]string
	all   []string
	rng   *rand.Rand
}

func NewWordBank(rng *rand.Rand, tiers ...[]string) *WordBank {
	if len(tiers) == 0 {
		tiers = [][]string{easyWords, mediumWords, hardWords}
	}
	bank := &WordBank{tiers: tiers, rng: rng}
	for _, tier := range tiers {
		bank.all = append(bank.all, tier...)
	}
	return bank
}

// LoadWordBank reads a newline-separated word file into a single-tier bank.
func LoadWordBank(path string, rng *rand.Rand) (*WordBank, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			words = append(words, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewWordBank(rng, words), nil
}

func (b *WordBank) Sample(count int) []string {
	choices := make([]string, 0, count)
	seen := make(map[string]bool, count)

	for i := 0; i < count && i < len(b.tiers); i++ {
		tier := b.tiers[i]
		if len(tier) == 0 {
			continue
		}
		word := tier[b.rng.Intn(len(tier))]
		if !seen[word] {
			seen[word] = true
			choices = append(choices, word)
		}
	}

	for len(choices) < count && len(seen) < len(b.all) {
		word := b.all[b.rng.Intn(len(b.all))]
		if !seen[word] {
			seen[word] = true
			choices = append(choices, word)
		}
	}

	return choices
}

var easyWords = []string{
	"apple", "house", "sun", "tree", "car", "fish", "star", "book", "cat",
	"dog", "ball", "moon", "cake", "shoe", "hat", "door", "clock", "chair",
	"cloud", "flower", "pizza", "boat", "bird", "key",
}

var mediumWords = []string{
	"parachute", "lighthouse", "snowman", "campfire", "waterfall", "telescope",
	"skateboard", "windmill", "volcano", "treasure", "astronaut", "tornado",
	"submarine", "scarecrow", "fireworks", "jellyfish", "drawbridge",
	"hot air balloon", "roller coaster", "ice cream truck",
}

var hardWords = []string{
	"procrastination", "deja vu", "gravity", "echo", "stage fright",
	"time machine", "black hole", "photosynthesis", "claustrophobia",
	"applause", "hibernation", "mirage", "camouflage", "eavesdropping",
	"brain freeze", "silhouette",
}
