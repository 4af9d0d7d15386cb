package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Channel describes the RSS channel wrapping a windowed feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	WindowDays  float64
}

type Generator struct {
	baseURL string
	port    string
	version string
}

func NewGenerator(baseURL, port, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		port:    port,
		version: version,
	}
}

// Run renders windowed entries, already sorted newest first, as RSS 2.0.
func (g *Generator) Run(channel Channel, entries []WindowedEntry, now time.Time) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", lo.CoalesceOrEmpty(channel.Title, "Recent chapters"), 4)
	g.writeElement(&buf, "link", lo.CoalesceOrEmpty(channel.Link, g.root()), 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("Chapters uploaded in the last %g days", lo.CoalesceOrEmpty(channel.WindowDays, DefaultWindowDays))
	}
	g.writeElement(&buf, "description", description, 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.root()+"/feeds/recent.xml")))

	lastBuildDate := now
	if len(entries) > 0 {
		lastBuildDate = entries[0].Instant
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.UTC().Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("chapter-feed/%s", g.version), 4)

	for _, entry := range entries {
		g.writeItem(&buf, entry)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, entry WindowedEntry) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(entry.SeriesID+"/chapter-"+entry.Chapter))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", fmt.Sprintf("%s - %s", entry.Title, entry.ChapterLabel), 6)
	g.writeElement(buf, "link", fmt.Sprintf("%s/api/description/%s", g.root(), entry.SeriesID), 6)
	g.writeElement(buf, "description", fmt.Sprintf("%s of %s, uploaded %s", entry.ChapterLabel, entry.Title, entry.RelativeTimeLabel), 6)
	g.writeElement(buf, "pubDate", entry.Instant.UTC().Format(time.RFC1123Z), 6)
	g.writeElement(buf, "category", entry.SeriesID, 6)

	// RSS 2.0 requires url, length and type; the image size is unknown
	if entry.UpdateImageRef != "" {
		if mimeType := mime.TypeByExtension(path.Ext(entry.UpdateImageRef)); mimeType != "" {
			buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
				html.EscapeString(entry.UpdateImageRef),
				html.EscapeString(mimeType)))
		}
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) root() string {
	if g.baseURL != "" {
		return g.baseURL
	}
	return fmt.Sprintf("http://localhost:%s", g.port)
}
