package rss

import (
	"fmt"
	"time"
)

type Feed struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Language    string   `xml:"language,omitempty"`
	Date        Date     `xml:"pubDate"`
	Category    []string `xml:"category"`
	Generator   string   `xml:"generator,omitempty"`
	TTL         int      `xml:"ttl,omitempty"`
	Items       []*Item  `xml:"item"`
}

func NewFeed(title string, link string, description string) *Feed {
	return &Feed{
		Title:       title,
		Link:        link,
		Description: description,
	}
}

// Normalize makes item links their permanent GUIDs when the items have no own GUIDs.
func (f *Feed) Normalize() {
	trueValue := true

	for _, item := range f.Items {
		if guid := &item.GUID; guid.ID == "" && item.Link != "" {
			guid.ID = item.Link
			guid.IsPermaLink = &trueValue
		}
	}
}

func (f *Feed) String() string {
	if f == nil {
		return fmt.Sprintf("%#v", f)
	}

	xml, err := Generate(f)
	if err == nil {
		return string(xml)
	}

	return fmt.Sprintf("XML generation error: %s. Go representation: %#v", err, f)
}

type Date struct {
	time.Time
}

type Item struct {
	Title      string   `xml:"title,omitempty"`
	GUID       GUID     `xml:"guid"`
	Link       string   `xml:"link,omitempty"`
	Date       Date     `xml:"pubDate"`
	Source     *Source  `xml:"source"`
	Categories []string `xml:"category"`
}

func NewItem(time time.Time, title string, link string) *Item {
	return &Item{
		Title: title,
		Link:  link,
		Date:  Date{Time: time},
	}
}

type GUID struct {
	ID          string `xml:",chardata"`
	IsPermaLink *bool  `xml:"isPermaLink,attr,omitempty"`
}

// Source is the channel the item came from.
type Source struct {
	Name string `xml:",chardata"`
	URL  string `xml:"url,attr"`
}
