package rss

import (
	"encoding/xml"
)

type rssRoot struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel *Feed    `xml:"channel"`
}

func (g *GUID) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if g.ID == "" {
		return nil
	}

	if g.IsPermaLink != nil {
		value := "true"
		if !*g.IsPermaLink {
			value = "false"
		}

		attr := xml.Attr{
			Name:  xml.Name{Local: "isPermaLink"},
			Value: value,
		}

		start.Attr = append(start.Attr, attr)
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := e.EncodeToken(xml.CharData(g.ID)); err != nil {
		return err
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func (d *Date) MarshalXML(encoder *xml.Encoder, start xml.StartElement) error {
	if d.IsZero() {
		return nil
	}

	if err := encoder.EncodeToken(start); err != nil {
		return err
	}

	if err := encoder.EncodeToken(xml.CharData(d.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT")); err != nil {
		return err
	}

	return encoder.EncodeToken(xml.EndElement{Name: start.Name})
}
