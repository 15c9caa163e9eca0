package blog

import (
	"math/rand/v2"
	"strings"
)

var (
	adjectives = []string{
		"auxiliary", "primary", "back-end", "digital", "open-source", "virtual",
		"cross-platform", "redundant", "online", "haptic", "multi-byte",
		"bluetooth", "wireless", "1080p", "neural", "optical", "solid state", "mobile",
	}
	nouns = []string{
		"driver", "protocol", "bandwidth", "panel", "microchip", "program", "port",
		"card", "array", "interface", "system", "sensor", "firewall", "hard drive",
		"pixel", "alarm", "feed", "monitor", "application", "transmitter", "bus",
		"circuit", "capacitor", "matrix",
	}
	verbs = []string{
		"back up", "bypass", "hack", "override", "compress", "copy", "navigate",
		"index", "connect", "generate", "quantify", "calculate", "synthesize",
		"input", "transmit", "program", "reboot", "parse",
	}
	ingverbs = []string{
		"backing up", "bypassing", "hacking", "overriding", "compressing", "copying",
		"navigating", "indexing", "connecting", "generating", "quantifying",
		"calculating", "synthesizing", "transmitting", "programming", "parsing",
	}
	abbreviations = []string{
		"ADP", "AGP", "AI", "API", "ASCII", "CLI", "COM", "CSS", "DNS", "EXE", "FTP",
		"GB", "HDD", "HEX", "HTTP", "IB", "JBOD", "JSON", "PCI", "RAM", "SAS", "SCSI",
		"SDD", "SMS", "SMTP", "SQL", "SSD", "SSL", "TCP", "THX", "TLS", "UDP", "USB",
		"UTF8", "XML", "XSS",
	}
	phrases = []string{
		"If we {verb} the {noun}, we can get to the {abbreviation} {noun} through the {adjective} {abbreviation} {noun}!",
		"We need to {verb} the {adjective} {abbreviation} {noun}!",
		"Try to {verb} the {abbreviation} {noun}, maybe it will {verb} the {adjective} {noun}!",
		"You can't {verb} the {noun} without {ingverb} the {adjective} {abbreviation} {noun}!",
		"Use the {adjective} {abbreviation} {noun}, then you can {verb} the {adjective} {noun}!",
		"The {abbreviation} {noun} is down, {verb} the {adjective} {noun} so we can {verb} the {abbreviation} {noun}!",
		"{ingverb} the {noun} won't do anything, we need to {verb} the {adjective} {abbreviation} {noun}!",
		"I'll {verb} the {adjective} {abbreviation} {noun}, that should {noun} the {abbreviation} {noun}!",
	}
)

// RandomPost returns a post with a hacker-jargon title and body.
func RandomPost(r *rand.Rand) Post {
	return Post{
		Title: pick(r, adjectives) + " " + pick(r, nouns),
		Body:  phrase(r),
	}
}

// RandomPosts returns n random posts.
func RandomPosts(r *rand.Rand, n int) []Post {
	posts := make([]Post, n)
	for i := range posts {
		posts[i] = RandomPost(r)
	}
	return posts
}

func pick(r *rand.Rand, words []string) string {
	return words[r.IntN(len(words))]
}

func phrase(r *rand.Rand) string {
	tmpl := pick(r, phrases)
	var b strings.Builder
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[start:], '}') + start
		b.WriteString(tmpl[:start])
		switch tmpl[start+1 : end] {
		case "adjective":
			b.WriteString(pick(r, adjectives))
		case "noun":
			b.WriteString(pick(r, nouns))
		case "verb":
			b.WriteString(pick(r, verbs))
		case "ingverb":
			b.WriteString(pick(r, ingverbs))
		case "abbreviation":
			b.WriteString(pick(r, abbreviations))
		}
		tmpl = tmpl[end+1:]
	}
	s := b.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
