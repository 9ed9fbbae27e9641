package index

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// pageWords is the number of words per indexed page.
const pageWords = 400

// loadText reads a document and returns its plain text. HTML markup is
// stripped; other files are read as text.
func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".htm", ".html":
		return htmlText(data)
	case ".pdf":
		return "", fmt.Errorf("PDF documents are not supported, convert %s to text first", filepath.Base(path))
	default:
		return string(bytes.ToValidUTF8(data, []byte(" "))), nil
	}
}

// htmlText extracts visible text, skipping script and style elements.
func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String(), nil
}

// chunkText splits text into pages of size words. Text with no words yields
// no pages.
func chunkText(text string, size int) []string {
	words := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// tokenize lowercases text and returns words of two or more letters or
// digits, minus English stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

var stopWords = func() map[string]bool {
	words := strings.Fields(`
		a about above across after afterwards again against all almost alone along already also
		although always am among amongst an and another any anyhow anyone anything anyway anywhere
		are around as at be became because become becomes becoming been before beforehand behind
		being below beside besides between beyond both but by can cannot could did do does doing
		done down due during each either else elsewhere enough etc even ever every everyone
		everything everywhere except few for former formerly from further had has have having he
		hence her here hereafter hereby herein hers herself him himself his how however i ie if in
		indeed into is it its itself just last latter latterly least less many may me meanwhile
		might mine more moreover most mostly much must my myself namely neither never nevertheless
		next no nobody none noone nor not nothing now nowhere of off often on once one only onto or
		other others otherwise our ours ourselves out over own per perhaps please rather re same
		seem seemed seeming seems several she should since so some somehow someone something
		sometime sometimes somewhere still such than that the their theirs them themselves then
		thence there thereafter thereby therefore therein thereupon these they this those though
		through throughout thru thus to together too toward towards under until up upon us very via
		was we well were what whatever when whence whenever where whereafter whereas whereby
		wherein whereupon wherever whether which while whither who whoever whole whom whose why
		will with within without would yet you your yours yourself yourselves`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
