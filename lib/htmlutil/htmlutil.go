package htmlutil

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

var innerWhitespace = []string{" ", "\t", "\n"}

// the visible text of a node with non-printables dropped and
// whitespace flattened, the way a browser would render a table cell
func CellText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		buffer.WriteString(GetText(n))
	}
	text := removeNonPrintable(buffer.String())
	for _, ws := range innerWhitespace {
		text = strings.ReplaceAll(text, ws, " ")
	}
	return strings.TrimSpace(text)
}

// ordered visible texts of the cells matched by `selector` under `row`
func CellTexts(row *goquery.Selection, selector string) []string {
	var texts []string
	row.Find(selector).Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, CellText(cell))
	})
	return texts
}
